package entity

type Category string

const (
	CategoryQRBarcode Category = "QR_BARCODE"
	CategoryText      Category = "TEXT"
	CategoryLocation  Category = "LOCATION"
	CategoryFace      Category = "FACE"
	CategoryOther     Category = "OTHER"
)

var categoryWire = map[Category]string{
	CategoryQRBarcode: "QRBARCODE",
	CategoryText:      "TEXT",
	CategoryLocation:  "LOCATION",
	CategoryFace:      "FACE",
	CategoryOther:     "ETC",
}

var categoryLabel = map[Category]string{
	CategoryQRBarcode: "QR/Barcode",
	CategoryText:      "Personal text",
	CategoryLocation:  "Location",
	CategoryFace:      "Face",
	CategoryOther:     "Other",
}

// Wire is the value the detection API uses for the category. Unknown
// categories are sent as ETC.
func (c Category) Wire() string {
	if w, ok := categoryWire[c]; ok {
		return w
	}
	return categoryWire[CategoryOther]
}

func (c Category) Label() string {
	if l, ok := categoryLabel[c]; ok {
		return l
	}
	return categoryLabel[CategoryOther]
}

// CategoryFromWire maps an API value back to a category. Anything the API
// invents later is treated as OTHER.
func CategoryFromWire(wire string) Category {
	for c, w := range categoryWire {
		if w == wire {
			return c
		}
	}
	return CategoryOther
}

type Filter string

const (
	FilterBlur     Filter = "BLUR"
	FilterMosaic   Filter = "MOSAIC"
	FilterAIRemove Filter = "AI_REMOVE"
)

var filterWire = map[Filter]string{
	FilterBlur:     "BLUR",
	FilterMosaic:   "MOSAIC",
	FilterAIRemove: "AI",
}

var filterLabel = map[Filter]string{
	FilterBlur:     "Blur",
	FilterMosaic:   "Mosaic",
	FilterAIRemove: "AI removal",
}

func (f Filter) Wire() string {
	return filterWire[f]
}

func (f Filter) Label() string {
	return filterLabel[f]
}

// RequiresPro reports whether the filter is locked behind the Pro plan.
func (f Filter) RequiresPro() bool {
	return f == FilterAIRemove
}

func FilterFromWire(wire string) (Filter, bool) {
	for f, w := range filterWire {
		if w == wire {
			return f, true
		}
	}
	return "", false
}

// DetectOptions are the four target toggles of the analysis panel.
type DetectOptions struct {
	QR       bool `json:"qr"`
	Personal bool `json:"personal"`
	Location bool `json:"location"`
	Portrait bool `json:"portrait"`
}

func DefaultDetectOptions() DetectOptions {
	return DetectOptions{Portrait: true}
}

// Categories returns the requested detection targets in a fixed order.
func (o DetectOptions) Categories() []Category {
	var out []Category
	if o.QR {
		out = append(out, CategoryQRBarcode)
	}
	if o.Personal {
		out = append(out, CategoryText)
	}
	if o.Location {
		out = append(out, CategoryLocation)
	}
	if o.Portrait {
		out = append(out, CategoryFace)
	}
	return out
}
