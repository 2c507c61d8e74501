// Package models defines the core domain records for tripsplit.
//
// All monetary amounts are signed integers in the smallest unit of their
// currency (cents, yen, ...). Floating point never touches money; exchange
// rates and fractional split values use decimal.Decimal.
//
// Entities reference each other by ID string rather than by pointer, so a
// record can be serialized, persisted, or handed to the calculator without
// dragging its whole object graph along. The calculator packages consume
// these records as plain data and never reach back into storage.
package models
