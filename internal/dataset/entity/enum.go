package entity

import (
	"fmt"
	"strings"
)

type DatasetStatus string

const (
	DatasetStatusQueued     DatasetStatus = "QUEUED"
	DatasetStatusProcessing DatasetStatus = "PROCESSING"
	DatasetStatusDone       DatasetStatus = "DONE"
	DatasetStatusFailed     DatasetStatus = "FAILED"
)

// Variant selects which stored table an operation reads.
type Variant string

const (
	VariantCleaned  Variant = "cleaned"
	VariantFiltered Variant = "filtered"
)

func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VariantCleaned, nil
	case VariantCleaned, VariantFiltered:
		return v, nil
	default:
		return "", fmt.Errorf("unknown variant %q", s)
	}
}

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

func (f Format) Extension() string {
	return "." + string(f)
}
