package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Uplink is the subset of a The Things Network uplink message used for
// positioning. Webhook payloads carry it at the top level; event stream
// payloads wrap it in a "data" object.
type Uplink struct {
	EndDeviceIDs  EndDeviceIDs  `json:"end_device_ids"`
	ReceivedAt    *time.Time    `json:"received_at,omitempty"`
	UplinkMessage UplinkMessage `json:"uplink_message"`
}

// EndDeviceIDs identifies the transmitting device.
type EndDeviceIDs struct {
	DeviceID string `json:"device_id"`
	DevEUI   string `json:"dev_eui,omitempty"`
}

// UplinkMessage holds the frame counter and per-gateway reception metadata.
type UplinkMessage struct {
	FCnt           *int               `json:"f_cnt,omitempty"`
	DecodedPayload json.RawMessage    `json:"decoded_payload,omitempty"`
	RxMetadata     []*GatewayMetadata `json:"rx_metadata"`
}

// GatewayMetadata is one gateway's reception report.
type GatewayMetadata struct {
	GatewayIDs GatewayIDs       `json:"gateway_ids"`
	ReceivedAt *time.Time       `json:"received_at,omitempty"`
	RSSI       *float64         `json:"rssi,omitempty"`
	SNR        *float64         `json:"snr,omitempty"`
	Location   *GatewayLocation `json:"location,omitempty"`
}

// GatewayIDs identifies a receiving gateway.
type GatewayIDs struct {
	GatewayID string `json:"gateway_id,omitempty"`
	EUI       string `json:"eui,omitempty"`
}

// GatewayLocation is a gateway's surveyed position.
type GatewayLocation struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
}

// MessageID derives the grouping key of the uplink: "<device_id>:<f_cnt>"
// when both are known, otherwise fallback.
func (u Uplink) MessageID(fallback string) string {
	if u.EndDeviceIDs.DeviceID == "" {
		return fallback
	}
	fcnt := 0
	if u.UplinkMessage.FCnt != nil {
		fcnt = *u.UplinkMessage.FCnt
	}
	return u.EndDeviceIDs.DeviceID + ":" + strconv.Itoa(fcnt)
}

// ParseUplink decodes a raw uplink payload into the receptions of one message.
// Gateways without a location, RSSI or SNR are dropped and reported, matching
// the strict ingestion contract.
func ParseUplink(key string, payload []byte) (Dataset, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return Dataset{}, fmt.Errorf("parse uplink: %w", err)
	}
	if len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		payload = envelope.Data
	}

	var up Uplink
	if err := json.Unmarshal(payload, &up); err != nil {
		return Dataset{}, fmt.Errorf("parse uplink: %w", err)
	}

	id := up.MessageID(key)
	var ds Dataset
	ds.See(id)
	for i, gw := range up.UplinkMessage.RxMetadata {
		if gw == nil {
			continue
		}
		rec, fe := gatewayReception(id, i, gw)
		if fe != nil {
			ds.Dropped = append(ds.Dropped, fe)
			continue
		}
		ds.Receptions = append(ds.Receptions, rec)
	}
	return ds, nil
}

func gatewayReception(messageID string, index int, gw *GatewayMetadata) (Reception, *FieldError) {
	missing := func(field string) *FieldError {
		return &FieldError{Row: index, MessageID: messageID, Field: field}
	}

	switch {
	case gw.Location == nil || gw.Location.Latitude == nil:
		return Reception{}, missing("rx_lat")
	case gw.Location.Longitude == nil:
		return Reception{}, missing("rx_lng")
	case gw.RSSI == nil:
		return Reception{}, missing("rssi")
	case gw.SNR == nil:
		return Reception{}, missing("snr")
	}

	rec := Reception{
		MessageID: messageID,
		GatewayID: gw.GatewayIDs.GatewayID,
		Lat:       *gw.Location.Latitude,
		Lng:       *gw.Location.Longitude,
		RSSI:      *gw.RSSI,
		SNR:       *gw.SNR,
	}
	if rec.GatewayID == "" {
		rec.GatewayID = gw.GatewayIDs.EUI
	}
	if err := rec.Position().Validate(); err != nil {
		fe := missing("rx_lat")
		if rec.Lat >= -90 && rec.Lat <= 90 {
			fe = missing("rx_lng")
		}
		return Reception{}, fe
	}
	return rec, nil
}

// PayloadKind names a webhook message type received from the network server.
type PayloadKind string

const (
	KindUplink   PayloadKind = "uplink"
	KindJoin     PayloadKind = "join"
	KindLocation PayloadKind = "location"
)
