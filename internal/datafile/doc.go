// Package datafile reads and writes Novonix export files.
//
// An export is a header of bracketed entries terminated by a [Data] line,
// followed by one line of comma-separated column names and the data rows.
// Rows are kept as raw text; derived values are appended as new trailing
// columns so the measured fields are never reformatted.
package datafile
