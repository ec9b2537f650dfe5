package netshield

import (
	"context"
	"time"

	"netshield/classifier"
	"netshield/models"
)

// Classifier is the outbound capability the pipeline needs from the AI
// engine client.
type Classifier interface {
	AnalyzeFile(ctx context.Context, dataset, model, filename string, payload []byte) (classifier.Verdict, error)
	AnalyzeManual(ctx context.Context, features map[string]interface{}) (classifier.Verdict, error)
}

// Upload is one raw file submission. Dataset and Model are optional caller
// declarations; when empty the pipeline detects the dataset from the header
// and falls back to the default model kind.
type Upload struct {
	Filename string
	Payload  []byte
	Dataset  string
	Model    string
}

// Pipeline runs the full ingestion flow: detect the dataset family, call the
// AI engine, enrich the verdict with extracted endpoints and simulated geo,
// and persist a history record. Persistence happens only after a successful
// verdict; a classification failure leaves no trace in the store.
type Pipeline struct {
	classifier Classifier
	store      HistoryStore
	modelKind  string
}

// NewPipeline wires the pipeline to its classifier and store. defaultModel
// is used when an upload does not declare one ("ml" matches the dashboard's
// fixed analyze-file route).
func NewPipeline(cls Classifier, store HistoryStore, defaultModel string) *Pipeline {
	if defaultModel == "" {
		defaultModel = "ml"
	}
	return &Pipeline{classifier: cls, store: store, modelKind: defaultModel}
}

// AnalyzeUpload classifies a raw upload and persists the enriched result.
// ownerID is nil for anonymous requests. Resubmitting identical bytes always
// appends a new record; there is no deduplication.
func (p *Pipeline) AnalyzeUpload(ctx context.Context, upload Upload, ownerID *int64) (AnalysisResult, error) {
	dataset := DatasetKind(upload.Dataset)
	if dataset == "" {
		dataset = DetectDataset(FirstLine(upload.Payload))
	}

	model := upload.Model
	if model == "" {
		model = p.modelKind
	}

	verdict, err := p.classifier.AnalyzeFile(ctx, string(dataset), model, upload.Filename, upload.Payload)
	if err != nil {
		return AnalysisResult{}, err
	}

	result := AnalysisResult{
		Filename:   upload.Filename,
		Prediction: verdict.Prediction,
		Confidence: verdict.Confidence,
		Severity:   verdict.Severity,
		Message:    verdict.Message,
		Dataset:    dataset,
		ModelKind:  model,
	}

	endpoints := EndpointsFromPayload(upload.Payload)
	if endpoints.Src != nil {
		result.SrcIP = *endpoints.Src
		result.Source = &EndpointGeo{Address: *endpoints.Src, Location: Locate(*endpoints.Src)}
	}
	if endpoints.Dst != nil {
		result.DstIP = *endpoints.Dst
		result.Destination = &EndpointGeo{Address: *endpoints.Dst, Location: Locate(*endpoints.Dst)}
	}

	record := &models.AnalysisRecord{
		Filename:   upload.Filename,
		Result:     verdict.Prediction,
		Confidence: verdict.Confidence,
		Timestamp:  time.Now(),
		SrcIP:      endpoints.Src,
		DstIP:      endpoints.Dst,
		UserID:     ownerID,
	}
	if err := p.store.AppendRecord(ctx, record); err != nil {
		return AnalysisResult{}, err
	}
	result.RecordID = record.ID

	return result, nil
}

// AnalyzeManual classifies a hand-entered feature vector. Manual probes have
// no file and no endpoints, so nothing is extracted or geolocated; the
// record is persisted under the filename "manual-probe".
func (p *Pipeline) AnalyzeManual(ctx context.Context, features models.ManualFeatures, ownerID *int64) (AnalysisResult, error) {
	verdict, err := p.classifier.AnalyzeManual(ctx, features)
	if err != nil {
		return AnalysisResult{}, err
	}

	result := AnalysisResult{
		Filename:   "manual-probe",
		Prediction: verdict.Prediction,
		Confidence: verdict.Confidence,
		Severity:   verdict.Severity,
		Message:    verdict.Message,
		Dataset:    DatasetSDN,
		ModelKind:  p.modelKind,
	}

	record := &models.AnalysisRecord{
		Filename:   result.Filename,
		Result:     verdict.Prediction,
		Confidence: verdict.Confidence,
		Timestamp:  time.Now(),
		UserID:     ownerID,
	}
	if err := p.store.AppendRecord(ctx, record); err != nil {
		return AnalysisResult{}, err
	}
	result.RecordID = record.ID

	return result, nil
}
