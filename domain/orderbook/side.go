package orderbook

import (
	"bytes"
	"errors"
	"strconv"
)

// Side is the direction of an order.
type Side uint8

const (
	Buy Side = iota
	Sell

	sideBuyStr  = "BUY"
	sideSellStr = "SELL"
)

var (
	sideBuyBytes  = []byte(`"BUY"`)
	sideSellBytes = []byte(`"SELL"`)
)

func (s Side) String() string {
	switch s {
	case Buy:
		return sideBuyStr
	case Sell:
		return sideSellStr
	}
	panic("invalid side value " + strconv.Itoa(int(s)))
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) MarshalJSON() ([]byte, error) {
	switch s {
	case Buy:
		return sideBuyBytes, nil
	case Sell:
		return sideSellBytes, nil
	}
	return nil, errors.New("invalid side value: " + strconv.Itoa(int(s)))
}

func (s *Side) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, sideBuyBytes) {
		*s = Buy
		return nil
	}
	if bytes.Equal(data, sideSellBytes) {
		*s = Sell
		return nil
	}
	return errors.New("unsupported side: " + string(data))
}

// ParseSide converts the wire representation. Case-sensitive.
func ParseSide(value string) (Side, error) {
	switch value {
	case sideBuyStr:
		return Buy, nil
	case sideSellStr:
		return Sell, nil
	}
	return 0, errors.New("unsupported side: " + value)
}
