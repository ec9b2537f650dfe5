package netshield

// DatasetKind selects which traffic-feature schema (and therefore which model
// family on the AI engine) applies to an upload.
type DatasetKind string

const (
	DatasetSDN     DatasetKind = "sdn"
	DatasetCICIDS  DatasetKind = "cicids"
	DatasetIDS2018 DatasetKind = "ids2018"
)

// Endpoints holds the source/destination addresses pulled out of the first
// data row of a CSV upload. Either side may be absent.
type Endpoints struct {
	Src *string
	Dst *string
}

// GeoPoint is a simulated map placement for an address. It is a visualization
// aid only; the coordinates come from a fixed reference table, not a GeoIP
// lookup.
type GeoPoint struct {
	IP   string  `json:"ip"`
	City string  `json:"city"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

// EndpointGeo pairs an extracted address with its simulated placement.
type EndpointGeo struct {
	Address  string   `json:"address"`
	Location GeoPoint `json:"location"`
}

// AnalysisResult is the enriched verdict returned to the caller after a
// successful classification. Field names stay wire-compatible with the AI
// engine response the dashboard already consumes.
type AnalysisResult struct {
	Filename    string       `json:"filename"`
	Prediction  string       `json:"prediction"`
	Confidence  float64      `json:"confidence_score"`
	Severity    string       `json:"severity,omitempty"`
	Message     string       `json:"message,omitempty"`
	Dataset     DatasetKind  `json:"dataset"`
	ModelKind   string       `json:"model_type"`
	SrcIP       string       `json:"src_ip,omitempty"`
	DstIP       string       `json:"dst_ip,omitempty"`
	Source      *EndpointGeo `json:"source,omitempty"`
	Destination *EndpointGeo `json:"destination,omitempty"`
	RecordID    string       `json:"recordId,omitempty"`
}

// RiskSummary is the on-demand aggregate the agent computes over history
// records. It is never persisted.
type RiskSummary struct {
	Summary           string  `json:"summary"`
	RiskLevel         string  `json:"riskLevel"`
	NextSteps         string  `json:"nextSteps"`
	TotalIncidents    int     `json:"totalIncidents"`
	AttackIncidents   int     `json:"attackIncidents"`
	AverageConfidence float64 `json:"averageConfidence"`
	Address           string  `json:"address,omitempty"`
}

const (
	RiskLow      = "Low"
	RiskElevated = "Elevated"
	RiskCritical = "Critical"
)
