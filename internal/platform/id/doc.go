// Package id generates identifiers for records such as segment
// definitions, campaigns and delivery receipts.
//
// Identifiers are UUIDv4 bytes encoded as unpadded base32, lowercased, so
// they are 26 characters long and safe in URLs and Kafka keys.
package id
