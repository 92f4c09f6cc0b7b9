package constants

// Sentinel values substituted by the field extractor when a pattern chain
// finds no match. "Unknown" doubles as the pipeline's skip marker for
// documents with no recognizable reference.
const (
	UnknownReference = "Unknown"
	ZeroRate         = "0.00"
	NoEquipment      = "None"
	NoContainer      = ""
)

// ExportColumns is the column order for CSV and XLSX exports of
// reconciled records.
var ExportColumns = []string{
	"Date Added",
	"Customer",
	"Reference #",
	"Equipment",
	"Container #",
	"Rate",
	"Chassis Count",
	"Expected Rate",
	"Mismatch",
	"File",
	"Status",
	"Notes",
}
