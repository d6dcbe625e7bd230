package fsqapi

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

type HasId struct {
	Id string `json:"id"`
}

type HasName struct {
	Name string `json:"name"`
}

// Business is a venue returned by the venue search. Nested structures are
// nil when Foursquare omitted them.
type Business struct {
	HasId
	HasName
	Contact    *Contact   `json:"contact,omitempty"`
	Location   *Location  `json:"location,omitempty"`
	Categories []Category `json:"categories,omitempty"`
	Verified   bool       `json:"verified"`
	Stats      *Stats     `json:"stats,omitempty"`
	Url        string     `json:"url,omitempty"`
	Hours      *Hours     `json:"hours,omitempty"`
	Menu       *Menu      `json:"menu,omitempty"`
	Specials   *Specials  `json:"specials,omitempty"`
	HereNow    *HereNow   `json:"hereNow,omitempty"`
	StoreId    string     `json:"storeId,omitempty"`
	ReferralId string     `json:"referralId,omitempty"`
}

type Contact struct {
	Phone          string `json:"phone,omitempty"`
	FormattedPhone string `json:"formattedPhone,omitempty"`
	Twitter        string `json:"twitter,omitempty"`
	Facebook       string `json:"facebook,omitempty"`
	Email          string `json:"email,omitempty"`
}

type Location struct {
	Address     string  `json:"address,omitempty"`
	CrossStreet string  `json:"crossStreet,omitempty"`
	City        string  `json:"city,omitempty"`
	State       string  `json:"state,omitempty"`
	PostalCode  string  `json:"postalCode,omitempty"`
	Country     string  `json:"country,omitempty"`
	Cc          string  `json:"cc,omitempty"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Distance    int     `json:"distance,omitempty"`
}

type Category struct {
	HasId
	HasName
	PluralName string `json:"pluralName,omitempty"`
	ShortName  string `json:"shortName,omitempty"`
	Icon       *Icon  `json:"icon,omitempty"`
	Primary    bool   `json:"primary"`
}

// Icon is split by Foursquare into a URL prefix and a file suffix, the
// image size goes in between.
type Icon struct {
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
}

type Stats struct {
	CheckinsCount int `json:"checkinsCount"`
	UsersCount    int `json:"usersCount"`
	TipCount      int `json:"tipCount"`
}

type Hours struct {
	Status     string      `json:"status,omitempty"`
	IsOpen     bool        `json:"isOpen"`
	Timeframes []TimeFrame `json:"timeframes,omitempty"`
}

type TimeFrame struct {
	Days          []int     `json:"days,omitempty"`
	Open          []Open    `json:"open,omitempty"`
	IncludesToday bool      `json:"includesToday"`
	Segments      []Segment `json:"segments,omitempty"`
}

// Open is a 24h "HHMM" opening interval.
type Open struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Segment struct {
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type Menu struct {
	Type      string `json:"type,omitempty"`
	Label     string `json:"label,omitempty"`
	Anchor    string `json:"anchor,omitempty"`
	Url       string `json:"url,omitempty"`
	MobileUrl string `json:"mobileUrl,omitempty"`
}

type Specials struct {
	Count int `json:"count"`
}

type HereNow struct {
	Count int `json:"count"`
}

type GlobalCategory struct {
	HasId
	HasName
	Children []GlobalCategory `json:"categories"`
}

type fsqCategory struct {
	Response struct {
		Categories []GlobalCategory `json:"categories"`
	} `json:"response"`
}

// URL returns the icon image for the given pixel size (32, 44, 64, 88).
func (i *Icon) URL(size int) string {
	if i == nil || i.Prefix == "" {
		return ""
	}
	return i.Prefix + strconv.Itoa(size) + i.Suffix
}

// FormattedAddress joins the street address, city, state and postal code
// the way a postal label would. Empty parts are left out.
func (b *Business) FormattedAddress() string {
	l := b.Location
	if l == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{l.Address, l.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	tail := strings.TrimSpace(strings.TrimSpace(l.State) + " " + strings.TrimSpace(l.PostalCode))
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ", ")
}

// PrimaryCategory returns the category flagged as primary, falling back to
// the first one. Nil when the venue has no categories.
func (b *Business) PrimaryCategory() *Category {
	for i := range b.Categories {
		if b.Categories[i].Primary {
			return &b.Categories[i]
		}
	}
	if len(b.Categories) > 0 {
		return &b.Categories[0]
	}
	return nil
}

func (b *Business) CategoryNames() []string {
	names := make([]string, 0, len(b.Categories))
	for _, c := range b.Categories {
		names = append(names, c.Name)
	}
	return names
}

const defaultPhoneRegion = "US"

// PhoneE164 normalises the contact phone into E.164 using the venue's country
// code as the dialing region. It returns "" when there is no phone or it is
// not a valid number for that region.
func (b *Business) PhoneE164() string {
	if b.Contact == nil {
		return ""
	}
	raw := strings.TrimSpace(b.Contact.Phone)
	if raw == "" {
		raw = strings.TrimSpace(b.Contact.FormattedPhone)
	}
	if raw == "" {
		return ""
	}
	region := defaultPhoneRegion
	if b.Location != nil && b.Location.Cc != "" {
		region = strings.ToUpper(b.Location.Cc)
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
