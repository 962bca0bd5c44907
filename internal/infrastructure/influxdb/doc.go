// Package influxdb provides time-series adherence metrics for Medcab Core.
//
// This package manages:
//   - Connection to an InfluxDB v2 server with token authentication
//   - Non-blocking, batched metric writes
//   - Connection health monitoring
//
// The store pushes derived figures here after every save: per-user
// adherence percentages and inventory risk counts. Long-range trends
// (is Dad's adherence slipping month over month?) live in InfluxDB;
// the document itself only ever holds the current derived snapshot.
//
// Writes are fire-and-forget. A failed write loses a data point, never a
// medication record.
package influxdb
