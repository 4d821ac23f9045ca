// Package core defines the shared language of the leaprecord system.
//
// This package contains:
//   - Adapter-facing data types (AdapterConfig, Column, TableMetadata, Row)
//   - Statement payloads (Assignment, ParamType)
//   - Dialect configuration data (DialectConfig)
//   - Sentinel errors shared by adapters and the record engine
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
