package header

// FieldType is the coercion type of a header field's value.
type FieldType uint8

const (
	TypeInt FieldType = iota + 1
	TypeStr
)

// fieldSpec describes one registered header key: its value type and its
// preferred position when the header is serialised (lower sorts first).
// Unknown keys (not in the registry) get index unknownIndex and sort last,
// alphabetically among themselves, per spec §4.4.
type fieldSpec struct {
	Index int
	Type  FieldType
}

const unknownIndex = 9999

// HEADER_FIELDS: the registry of known subfile header keys. Field names and
// grouping follow the MWAX correlator's subfile header conventions; the
// index column fixes serialisation order within each group.
var registry = map[string]fieldSpec{
	"OBS_ID":               {0, TypeInt},
	"SUBOBS_ID":            {1, TypeInt},
	"MODE":                 {2, TypeStr},
	"UTC_START":            {3, TypeStr},
	"OBS_OFFSET":           {4, TypeInt},
	"NBIT":                 {5, TypeInt},
	"NPOL":                 {6, TypeInt},
	"NTIMESAMPLES":         {7, TypeInt},
	"NINPUTS":              {8, TypeInt},
	"NINPUTS_XGPU":         {9, TypeInt},
	"METADATA_BEAMS":       {10, TypeInt},
	"APPLY_PATH_WEIGHTS":   {11, TypeInt},
	"APPLY_PATH_DELAYS":    {12, TypeInt},
	"INT_TIME_MSEC":        {13, TypeInt},
	"FSCRUNCH_FACTOR":      {14, TypeInt},
	"APPLY_VIS_WEIGHTS":    {15, TypeInt},
	"TRANSFER_SIZE":        {16, TypeInt},
	"PROJECT_ID":           {17, TypeStr},
	"EXPOSURE_SECS":        {18, TypeInt},
	"COARSE_CHANNEL":       {19, TypeInt},
	"CORR_COARSE_CHANNEL":  {20, TypeInt},
	"SECS_PER_SUBOBS":      {21, TypeInt},
	"UNIXTIME":             {22, TypeInt},
	"UNIXTIME_MSEC":        {23, TypeInt},
	"FINE_CHAN_WIDTH_HZ":   {24, TypeInt},
	"NFINE_CHAN":           {25, TypeInt},
	"BANDWIDTH_HZ":         {26, TypeInt},
	"SAMPLE_RATE":          {27, TypeInt},
	"MC_IP":                {28, TypeStr},
	"MC_PORT":              {29, TypeInt},
	"MC_SRC_IP":            {30, TypeStr},
	"MWAX_SUB_VER":         {31, TypeInt},
	"FRAC_DELAY_SIZE":      {32, TypeInt},
	"GPSTIME":              {33, TypeInt},
}

// registeredType returns the coercion type for key, and whether it is known.
func registeredType(key string) (FieldType, bool) {
	spec, ok := registry[key]
	if !ok {
		return 0, false
	}

	return spec.Type, true
}

// sortIndex returns the serialisation-order index for key (unknownIndex if
// key is not registered).
func sortIndex(key string) int {
	if spec, ok := registry[key]; ok {
		return spec.Index
	}

	return unknownIndex
}
