package netshield

import "strings"

// DetectDataset inspects a CSV header line and picks the dataset family the
// upload most likely belongs to. Uploads do not declare their schema, and the
// AI engine needs a model family, so detection is heuristic and total: a
// malformed or empty header falls through to the SDN default.
//
// First match wins, case-insensitive:
//
//	pktcount          -> sdn      (custom SDN flow stats)
//	idle              -> ids2018  (CSE-CIC-IDS2018 idle/active columns)
//	active, flow iat  -> cicids   (CICIDS2017 flow timing columns)
//	anything else     -> sdn
func DetectDataset(headerLine string) DatasetKind {
	header := strings.ToLower(headerLine)

	switch {
	case strings.Contains(header, "pktcount"):
		return DatasetSDN
	case strings.Contains(header, "idle"):
		return DatasetIDS2018
	case strings.Contains(header, "active"), strings.Contains(header, "flow iat"):
		return DatasetCICIDS
	default:
		return DatasetSDN
	}
}
