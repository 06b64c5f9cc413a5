// Package catalog talks to the admin station inventory API.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// StationStatus is the admin lifecycle state of a station.
type StationStatus string

const (
	StationActive   StationStatus = "active"
	StationInactive StationStatus = "inactive"
)

// PortStatus is the admin view of a charging port.
type PortStatus string

const (
	PortAvailable PortStatus = "available"
	PortInUse     PortStatus = "in_use"
	PortInactive  PortStatus = "inactive"
)

// Canonical values for a port added without explicit figures.
const (
	DefaultPortType    = "DC"
	DefaultPortPowerKw = 60
	DefaultPortSpeed   = "fast"
	DefaultPortPrice   = 3500
)

var ErrUnexpectedShape = errors.New("unexpected response shape")

// ID accepts both numeric and string identifiers.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", b, err)
	}
	*id = ID(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

// Port is one charging point as stored by the admin API. Price is in đồng per kWh.
type Port struct {
	Type    string     `json:"type"`
	Status  PortStatus `json:"status"`
	PowerKw float64    `json:"powerKw"`
	Speed   string     `json:"speed"`
	Price   float64    `json:"price"`
}

// DefaultPort is the port pre-filled when a station is created.
func DefaultPort() Port {
	return Port{
		Type:    DefaultPortType,
		Status:  PortAvailable,
		PowerKw: DefaultPortPowerKw,
		Speed:   DefaultPortSpeed,
		Price:   DefaultPortPrice,
	}
}

// Station is an admin station record.
type Station struct {
	ID        ID            `json:"id,omitempty"`
	Name      string        `json:"name"`
	Address   string        `json:"address"`
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Status    StationStatus `json:"status"`
	Provider  string        `json:"provider,omitempty"`
	Ports     []Port        `json:"ports"`
}

// decodeList accepts {"items": [...]}, {"data": [...]} or a bare array.
func decodeList(body []byte) ([]Station, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrUnexpectedShape
	}
	if body[0] == '[' {
		var out []Station
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	var wrapped struct {
		Items json.RawMessage `json:"items"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	for _, raw := range []json.RawMessage{wrapped.Items, wrapped.Data} {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '[' {
			continue
		}
		var out []Station
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, ErrUnexpectedShape
}

// decodeOne accepts {"data": {...}} or the bare object.
func decodeOne(body []byte) (Station, error) {
	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return Station{}, err
	}
	raw := bytes.TrimSpace(wrapped.Data)
	if len(raw) > 0 && raw[0] == '{' {
		body = raw
	}
	var st Station
	if err := json.Unmarshal(body, &st); err != nil {
		return Station{}, err
	}
	return st, nil
}
