package domain

type Coordinates struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type Address struct {
	ID         string   `json:"id"`
	OwnerID    string   `json:"ownerId,omitempty"`
	Line1      string   `json:"line1"`
	Line2      string   `json:"line2,omitempty"`
	City       string   `json:"city"`
	Province   string   `json:"province"`
	PostalCode string   `json:"postalCode"`
	Country    string   `json:"country"`
	IsPrimary  bool     `json:"isPrimary"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
}

// Coordinates returns the address location when both parts are known.
func (a Address) Coordinates() (Coordinates, bool) {
	if a.Lat == nil || a.Lng == nil {
		return Coordinates{}, false
	}
	return Coordinates{Lat: *a.Lat, Lng: *a.Lng}, true
}

// Text is the single-line form sent to the quote endpoint.
func (a Address) Text() string {
	out := a.Line1
	for _, part := range []string{a.Line2, a.City, a.Province, a.PostalCode, a.Country} {
		if part == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += part
	}
	return out
}

type AddressForm struct {
	OwnerID    string   `json:"ownerId" validate:"required"`
	Line1      string   `json:"line1" validate:"required"`
	Line2      string   `json:"line2,omitempty"`
	City       string   `json:"city" validate:"required"`
	Province   string   `json:"province" validate:"required"`
	PostalCode string   `json:"postalCode" validate:"required"`
	Country    string   `json:"country" validate:"required"`
	IsPrimary  bool     `json:"isPrimary"`
	Lat        *float64 `json:"lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Lng        *float64 `json:"lng,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// AddressPatch carries only the fields being changed.
type AddressPatch struct {
	Line1      *string  `json:"line1,omitempty" validate:"omitempty,min=1"`
	Line2      *string  `json:"line2,omitempty"`
	City       *string  `json:"city,omitempty" validate:"omitempty,min=1"`
	Province   *string  `json:"province,omitempty" validate:"omitempty,min=1"`
	PostalCode *string  `json:"postalCode,omitempty" validate:"omitempty,min=1"`
	Country    *string  `json:"country,omitempty" validate:"omitempty,min=1"`
	Lat        *float64 `json:"lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Lng        *float64 `json:"lng,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// Apply returns a copy of a with the patch fields applied.
func (p AddressPatch) Apply(a Address) Address {
	if p.Line1 != nil {
		a.Line1 = *p.Line1
	}
	if p.Line2 != nil {
		a.Line2 = *p.Line2
	}
	if p.City != nil {
		a.City = *p.City
	}
	if p.Province != nil {
		a.Province = *p.Province
	}
	if p.PostalCode != nil {
		a.PostalCode = *p.PostalCode
	}
	if p.Country != nil {
		a.Country = *p.Country
	}
	if p.Lat != nil {
		lat := *p.Lat
		a.Lat = &lat
	}
	if p.Lng != nil {
		lng := *p.Lng
		a.Lng = &lng
	}
	return a
}
