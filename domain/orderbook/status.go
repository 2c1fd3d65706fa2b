package orderbook

import (
	"bytes"
	"errors"
	"strconv"
)

// Status is the lifecycle state of an order.
//
// NEW -> PARTIALLY_FILLED -> FILLED
// NEW | PARTIALLY_FILLED -> CANCELLED
//
// FILLED and CANCELLED are terminal.
type Status uint8

const (
	StatusNew Status = iota
	StatusPartiallyFilled
	StatusFilled
	StatusCancelled

	statusNewStr             = "NEW"
	statusPartiallyFilledStr = "PARTIALLY_FILLED"
	statusFilledStr          = "FILLED"
	statusCancelledStr       = "CANCELLED"
)

var (
	statusNewBytes             = []byte(`"NEW"`)
	statusPartiallyFilledBytes = []byte(`"PARTIALLY_FILLED"`)
	statusFilledBytes          = []byte(`"FILLED"`)
	statusCancelledBytes       = []byte(`"CANCELLED"`)
)

func (st Status) String() string {
	switch st {
	case StatusNew:
		return statusNewStr
	case StatusPartiallyFilled:
		return statusPartiallyFilledStr
	case StatusFilled:
		return statusFilledStr
	case StatusCancelled:
		return statusCancelledStr
	}
	panic("invalid status value " + strconv.Itoa(int(st)))
}

// Terminal reports whether no further mutation is permitted.
func (st Status) Terminal() bool {
	return st == StatusFilled || st == StatusCancelled
}

func (st Status) MarshalJSON() ([]byte, error) {
	switch st {
	case StatusNew:
		return statusNewBytes, nil
	case StatusPartiallyFilled:
		return statusPartiallyFilledBytes, nil
	case StatusFilled:
		return statusFilledBytes, nil
	case StatusCancelled:
		return statusCancelledBytes, nil
	}
	return nil, errors.New("invalid status value: " + strconv.Itoa(int(st)))
}

func (st *Status) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, statusNewBytes):
		*st = StatusNew
	case bytes.Equal(data, statusPartiallyFilledBytes):
		*st = StatusPartiallyFilled
	case bytes.Equal(data, statusFilledBytes):
		*st = StatusFilled
	case bytes.Equal(data, statusCancelledBytes):
		*st = StatusCancelled
	default:
		return errors.New("unsupported status: " + string(data))
	}
	return nil
}

// ParseStatus converts the wire representation.
func ParseStatus(value string) (Status, error) {
	switch value {
	case statusNewStr:
		return StatusNew, nil
	case statusPartiallyFilledStr:
		return StatusPartiallyFilled, nil
	case statusFilledStr:
		return StatusFilled, nil
	case statusCancelledStr:
		return StatusCancelled, nil
	}
	return 0, errors.New("unsupported status: " + value)
}
