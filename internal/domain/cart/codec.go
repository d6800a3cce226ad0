package cart

import (
	"encoding/json"
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// ErrCorruptState is returned by UnmarshalItems when stored data cannot be
// decoded into a list of items.
var ErrCorruptState = errors.New("corrupt cart state")

// MarshalItems encodes items as a JSON array, one object per line.
func MarshalItems(items []Item) ([]byte, error) {
	var e jx.Encoder
	e.ArrStart()
	for _, it := range items {
		if err := encodeItem(&e, it); err != nil {
			return nil, errors.Wrapf(err, "encode item %q", it.ID)
		}
	}
	e.ArrEnd()
	return e.Bytes(), nil
}

func encodeItem(e *jx.Encoder, it Item) error {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("serviceType")
	e.Str(string(it.ServiceType))
	e.FieldStart("name")
	e.Str(it.Name)
	e.FieldStart("price")
	e.Num(jx.Num(it.Price.String()))
	if it.ImageURL != "" {
		e.FieldStart("imageUrl")
		e.Str(it.ImageURL)
	}
	e.FieldStart("qty")
	e.Int(it.Qty)
	if it.Details != nil {
		raw, err := json.Marshal(it.Details)
		if err != nil {
			return errors.Wrap(err, "details")
		}
		e.FieldStart("details")
		e.Raw(raw)
	}
	e.ObjEnd()
	return nil
}

// UnmarshalItems decodes data produced by MarshalItems. Empty input and a JSON
// null both decode to no items. Malformed input, trailing data and lines no
// cart could hold yield an error wrapping ErrCorruptState.
func UnmarshalItems(data []byte) ([]Item, error) {
	if len(data) == 0 {
		return nil, nil
	}
	items, err := decodeItems(jx.DecodeBytes(data))
	if err != nil {
		return nil, errors.Wrap(ErrCorruptState, err.Error())
	}
	return items, nil
}

func decodeItems(d *jx.Decoder) ([]Item, error) {
	var items []Item
	if d.Next() == jx.Null {
		if err := d.Null(); err != nil {
			return nil, err
		}
	} else if err := d.Arr(func(d *jx.Decoder) error {
		it, err := decodeItem(d)
		if err != nil {
			return err
		}
		if err := checkStored(it); err != nil {
			return errors.Wrapf(err, "item %d", len(items))
		}
		items = append(items, it)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := d.Skip(); err != io.EOF {
		return nil, errors.New("trailing data after items")
	}
	return items, nil
}

// checkStored rejects lines that Add would never have produced.
func checkStored(it Item) error {
	switch {
	case it.ID == "":
		return errors.New("empty id")
	case !it.ServiceType.Valid():
		return errors.Errorf("unknown service type %q", it.ServiceType)
	case it.Qty <= 0:
		return errors.Errorf("quantity %d", it.Qty)
	case it.Price.IsNegative():
		return errors.Errorf("negative price %s", it.Price)
	}
	return nil
}

func decodeItem(d *jx.Decoder) (Item, error) {
	var it Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Str()
			it.ID = v
			return err
		case "serviceType":
			v, err := d.Str()
			it.ServiceType = ServiceType(v)
			return err
		case "name":
			v, err := d.Str()
			it.Name = v
			return err
		case "imageUrl":
			v, err := d.Str()
			it.ImageURL = v
			return err
		case "price":
			n, err := d.Num()
			if err != nil {
				return err
			}
			price, err := decimal.NewFromString(n.String())
			if err != nil {
				return errors.Wrap(err, "price")
			}
			it.Price = price
			return nil
		case "qty":
			v, err := d.Int()
			it.Qty = v
			return err
		case "details":
			raw, err := d.Raw()
			if err != nil {
				return err
			}
			if raw.Type() == jx.Null {
				return nil
			}
			return json.Unmarshal(raw, &it.Details)
		default:
			return d.Skip()
		}
	})
	return it, err
}
