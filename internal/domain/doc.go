// Package domain estimates transmitter positions from LoRaWAN gateway receptions.
//
// # Data Source
//
// A LoRaWAN uplink is received by every gateway in range. The network server
// (The Things Network) reports each of those receptions in the uplink's
// rx_metadata list, together with the gateway's surveyed location and the
// signal metrics it measured. The collector persists the raw uplink JSON or
// exports it flat, one row per reception:
//
//	message_id,rx_lat,rx_lng,rssi,snr
//	42,52.0,4.0,-80,5
//	42,52.01,4.02,-60,10
//
// Rows sharing a message_id are receptions of the same transmission.
//
// # Estimation
//
// The estimator is a weighted centroid, not a TDOA or propagation solver.
// Each reception gets a raw weight
//
//	w = exp(rssi / RSSIScale) * (snr + SNROffset)
//
// with RSSIScale = 10 and SNROffset = 10 by default. Both constants are
// empirical: the exponential rewards stronger receptions, the offset keeps
// mildly negative SNR values contributing. Weights are normalized per message
// and the estimate is Σ lat·w, Σ lng·w. The unweighted mode is the arithmetic
// mean of the gateway positions.
//
// # Distances
//
// Great-circle distances use the haversine formula on a sphere of radius
// 6371 km. Rankings against a reference point are stable and ascending.
//
// # Failure handling
//
//	ErrMissingField       row lacks a required numeric field; row is dropped
//	ErrEmptyGroup         group has no members
//	ErrZeroWeight         group weights do not sum to a positive finite value
//	ErrInvalidInput       empty estimate set or out-of-range reference point
//	ErrSourceUnavailable  input could not be loaded; terminal for the run
//
// Group failures are reported per message and never abort other groups.
package domain
