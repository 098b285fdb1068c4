// Package i18n translates the calendar's server-side strings: holiday
// names and the feedback shown after drag and drop.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	HolidayNewYear         = "holiday.newYear"
	HolidayGoodFriday      = "holiday.goodFriday"
	HolidayEasterMonday    = "holiday.easterMonday"
	HolidayLabourDay       = "holiday.labourDay"
	HolidayVictoryDay      = "holiday.victoryDay"
	HolidayCyrilMethodius  = "holiday.cyrilMethodius"
	HolidayJanHus          = "holiday.janHus"
	HolidayStatehood       = "holiday.statehood"
	HolidayIndependence    = "holiday.independence"
	HolidayFreedom         = "holiday.freedom"
	HolidayChristmasEve    = "holiday.christmasEve"
	HolidayChristmasDay    = "holiday.christmasDay"
	HolidayStStephen       = "holiday.stStephen"
	FlashEventMoved        = "flash.eventMoved"
	FlashEventResized      = "flash.eventResized"
	FlashSourceNotEditable = "flash.sourceNotEditable"
	FlashSourceNotFound    = "flash.sourceNotFound"
	FlashEventNotFound     = "flash.eventNotFound"
	FlashInvalidDate       = "flash.invalidDate"
)

var messages = map[language.Tag]map[string]string{
	language.English: {
		HolidayNewYear:         "New Year's Day",
		HolidayGoodFriday:      "Good Friday",
		HolidayEasterMonday:    "Easter Monday",
		HolidayLabourDay:       "Labour Day",
		HolidayVictoryDay:      "Victory Day",
		HolidayCyrilMethodius:  "Saints Cyril and Methodius Day",
		HolidayJanHus:          "Jan Hus Day",
		HolidayStatehood:       "Czech Statehood Day",
		HolidayIndependence:    "Independent Czechoslovak State Day",
		HolidayFreedom:         "Struggle for Freedom and Democracy Day",
		HolidayChristmasEve:    "Christmas Eve",
		HolidayChristmasDay:    "Christmas Day",
		HolidayStStephen:       "St. Stephen's Day",
		FlashEventMoved:        "%s was moved.",
		FlashEventResized:      "%s was resized.",
		FlashSourceNotEditable: "Events of %s cannot be changed.",
		FlashSourceNotFound:    "There is no calendar for %s events.",
		FlashEventNotFound:     "The event could not be found.",
		FlashInvalidDate:       "The new date %s could not be read.",
	},
	language.Czech: {
		HolidayNewYear:         "Nový rok",
		HolidayGoodFriday:      "Velký pátek",
		HolidayEasterMonday:    "Velikonoční pondělí",
		HolidayLabourDay:       "Svátek práce",
		HolidayVictoryDay:      "Den vítězství",
		HolidayCyrilMethodius:  "Den slovanských věrozvěstů Cyrila a Metoděje",
		HolidayJanHus:          "Den upálení mistra Jana Husa",
		HolidayStatehood:       "Den české státnosti",
		HolidayIndependence:    "Den vzniku samostatného československého státu",
		HolidayFreedom:         "Den boje za svobodu a demokracii",
		HolidayChristmasEve:    "Štědrý den",
		HolidayChristmasDay:    "1. svátek vánoční",
		HolidayStStephen:       "2. svátek vánoční",
		FlashEventMoved:        "Událost %s byla přesunuta.",
		FlashEventResized:      "Událost %s byla upravena.",
		FlashSourceNotEditable: "Události zdroje %s nelze měnit.",
		FlashSourceNotFound:    "Pro události %s neexistuje žádný kalendář.",
		FlashEventNotFound:     "Událost nebyla nalezena.",
		FlashInvalidDate:       "Nové datum %s nelze přečíst.",
	},
}

var (
	cat       = newCatalog()
	supported = cat.Languages()
	matcher   = language.NewMatcher(supported)
)

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range messages {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Translator formats messages in one language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a translator for the closest supported match of locale, which
// may be any BCP 47 tag ("cs", "cs-CZ", "en-GB"). Unknown locales get
// English.
func New(locale string) *Translator {
	tag := language.English
	if requested, err := language.Parse(locale); err == nil {
		_, i, conf := matcher.Match(requested)
		if conf != language.No {
			tag = supported[i]
		}
	}
	return &Translator{tag: tag, printer: message.NewPrinter(tag, message.Catalog(cat))}
}

// Translate looks up key and formats it with args. Keys without a message
// are formatted as they are.
func (t *Translator) Translate(key string, args ...any) string {
	return t.printer.Sprintf(key, args...)
}

func (t *Translator) Locale() string {
	return t.tag.String()
}
