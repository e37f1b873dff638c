package document

import "strings"

// Export formats understood by the conversion engine.
const (
	ExportMarkdown = "markdown"
	ExportJSON     = "json"
	ExportText     = "text"
	ExportHTML     = "html"
)

// ConversionOptions is the immutable option snapshot taken when a document is
// enqueued. The worker reads it back from the record; later edits to defaults
// never affect jobs already in the queue.
type ConversionOptions struct {
	ExportFormat     string          `json:"export_format"`
	ExtractImages    bool            `json:"extract_images"`
	EnrichCode       bool            `json:"enrich_code"`
	EnrichFormula    bool            `json:"enrich_formula"`
	ClassifyPictures bool            `json:"classify_pictures"`
	DescribePictures bool            `json:"describe_pictures"`
	Chunking         ChunkingOptions `json:"chunking"`
}

// ChunkingOptions configures the optional post-conversion chunking step.
type ChunkingOptions struct {
	Enabled              bool   `json:"enabled"`
	Tokenizer            string `json:"tokenizer"`
	TokenizerModel       string `json:"tokenizer_model"`
	MaxTokens            int    `json:"max_tokens"`
	MergePeers           bool   `json:"merge_peers"`
	OverlapTokens        int    `json:"overlap_tokens"`
	RespectBoundaries    bool   `json:"respect_boundaries"`
	ModelPreset          string `json:"model_preset"`
	TableSerialization   string `json:"table_serialization"`
	PictureSerialization string `json:"picture_serialization"`
}

// OutputExtension maps the export format to the converted file extension.
func (o ConversionOptions) OutputExtension() string {
	switch strings.ToLower(strings.TrimSpace(o.ExportFormat)) {
	case ExportJSON:
		return ".json"
	case ExportText:
		return ".txt"
	case ExportHTML:
		return ".html"
	default:
		return ".md"
	}
}

// SlowEnrichmentActive reports whether an enrichment with markedly slower
// phase behavior (vision-based picture description) is enabled.
func (o ConversionOptions) SlowEnrichmentActive() bool {
	return o.DescribePictures
}

// ActiveEnrichments lists enabled enrichment names in a stable order.
func (o ConversionOptions) ActiveEnrichments() []string {
	var names []string
	if o.EnrichCode {
		names = append(names, "code_enrichment")
	}
	if o.EnrichFormula {
		names = append(names, "formula_enrichment")
	}
	if o.ClassifyPictures {
		names = append(names, "picture_classification")
	}
	if o.DescribePictures {
		names = append(names, "picture_description")
	}
	return names
}
