// Package output formats rostervault-cli results as table, JSON or YAML.
//
// Tables are built by reflection from slices, maps and structs. Struct
// fields take their column name from the json tag; the table tag controls
// rendering:
//
//	table:"-"      skip the field
//	table:"wide"   only shown with --wide
//	table:"bytes"  render integers as human-readable sizes
package output
