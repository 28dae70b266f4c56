package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Persisted cart format.
//
// Version 1 is a tagged envelope so readers can validate and migrate instead
// of trusting the payload shape:
//
//	{"v":1,"items":[{"variantId":...,"price":"20.00",...}]}
//
// Version 0 (legacy) is the bare line-item array the original browser client
// kept in its cookie, with a numeric price and loosely typed sizes. Decode
// accepts both; Encode always writes version 1.
const codecVersion = 1

// ErrBadPayload is returned when a persisted cart cannot be decoded.
var ErrBadPayload = errors.New("malformed cart payload")

// Encode serializes lines into the version-1 envelope.
func Encode(items []LineItem) string {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("v", func(e *jx.Encoder) { e.Int(codecVersion) })
		e.Field("items", func(e *jx.Encoder) {
			encodeItems(e, items)
		})
	})
	return e.String()
}

func encodeItems(e *jx.Encoder, items []LineItem) {
	e.Arr(func(e *jx.Encoder) {
		for _, it := range items {
			encodeItem(e, it)
		}
	})
}

func encodeItem(e *jx.Encoder, it LineItem) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("variantId", func(e *jx.Encoder) { e.Str(it.VariantID) })
		e.Field("variantKey", func(e *jx.Encoder) { e.Str(it.VariantKey) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("slug", func(e *jx.Encoder) { e.Str(it.Slug) })
		e.Field("price", func(e *jx.Encoder) { e.Str(it.Price.String()) })
		e.Field("path", func(e *jx.Encoder) { e.Str(it.Path) })
		e.Field("stockBySize", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, s := range it.StockBySize {
					e.Obj(func(e *jx.Encoder) {
						e.Field("size", func(e *jx.Encoder) { e.Str(s.Size) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(s.Quantity) })
					})
				}
			})
		})
		e.Field("image", func(e *jx.Encoder) { e.Str(it.Image) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
		e.Field("selectedSize", func(e *jx.Encoder) { e.Str(it.SelectedSize) })
		e.Field("department", func(e *jx.Encoder) { e.Str(it.Department) })
		e.Field("category", func(e *jx.Encoder) { e.Str(it.Category) })
	})
}

// Decode parses a persisted cart, migrating legacy payloads on read. An empty
// payload decodes to an empty cart.
func Decode(payload string) ([]LineItem, error) {
	if payload == "" {
		return nil, nil
	}
	d := jx.DecodeStr(payload)

	switch d.Next() {
	case jx.Array:
		// Legacy bare array.
		return decodeItems(d)
	case jx.Object:
		return decodeEnvelope(d)
	default:
		return nil, errors.Wrapf(ErrBadPayload, "unexpected type %s", d.Next())
	}
}

func decodeEnvelope(d *jx.Decoder) ([]LineItem, error) {
	var (
		version int
		items   []LineItem
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "v":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "version")
			}
			version = v
			return nil
		case "items":
			var err error
			items, err = decodeItems(d)
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, errors.Wrap(ErrBadPayload, err.Error())
	}
	if version != codecVersion {
		return nil, errors.Wrapf(ErrBadPayload, "unsupported version %d", version)
	}
	return items, nil
}

func decodeItems(d *jx.Decoder) ([]LineItem, error) {
	var items []LineItem
	err := d.Arr(func(d *jx.Decoder) error {
		it, err := decodeItem(d)
		if err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(ErrBadPayload, err.Error())
	}
	return items, nil
}

func decodeItem(d *jx.Decoder) (LineItem, error) {
	var it LineItem
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "variantId", "_id":
			it.VariantID, err = decodeFlexString(d)
		case "variantKey", "_key":
			it.VariantKey, err = d.Str()
		case "name":
			it.Name, err = d.Str()
		case "slug":
			it.Slug, err = d.Str()
		case "price":
			it.Price, err = decodePrice(d)
		case "path":
			it.Path, err = d.Str()
		case "stockBySize", "countInStock":
			it.StockBySize, err = decodeStock(d)
		case "image":
			it.Image, err = d.Str()
		case "quantity":
			it.Quantity, err = d.Int()
		case "selectedSize":
			it.SelectedSize, err = decodeFlexString(d)
		case "department":
			it.Department, err = d.Str()
		case "category":
			it.Category, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	return it, err
}

func decodeStock(d *jx.Decoder) ([]SizeStock, error) {
	var stock []SizeStock
	err := d.Arr(func(d *jx.Decoder) error {
		var s SizeStock
		err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "size":
				s.Size, err = decodeFlexString(d)
			case "quantity":
				s.Quantity, err = d.Int()
			default:
				err = d.Skip()
			}
			return err
		})
		if err != nil {
			return err
		}
		stock = append(stock, s)
		return nil
	})
	return stock, err
}

// decodePrice accepts both the v1 string form and the legacy number form.
func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Zero, errors.Errorf("unexpected price type %s", d.Next())
	}
}

// decodeFlexString accepts strings and bare numbers; legacy payloads carried
// numeric ids and sizes.
func decodeFlexString(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", errors.Errorf("unexpected string type %s", d.Next())
	}
}
