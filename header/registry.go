package header

// FieldType is the coercion type of a registered header field.
type FieldType uint8

const (
	FieldInt FieldType = iota
	FieldString
)

// unknownIndex is the sort index assigned to a key not present in the
// registry; such keys still round-trip (stored as strings) but always
// sort last.
const unknownIndex = 9999

type fieldSpec struct {
	index int
	typ   FieldType
}

// fields is the static HEADER_FIELDS registry: every key a subfile
// header is known to carry, its value type, and its preferred
// serialisation order. This list reflects the MWAX correlator's
// subfile header as documented for vcsbeam/mwalib-family tooling.
var fields = map[string]fieldSpec{
	"TIME":                  {0, FieldInt},
	"OBS_ID":                {1, FieldInt},
	"SUBOBS_ID":             {2, FieldInt},
	"MODE":                  {3, FieldString},
	"UTC_START":             {4, FieldString},
	"OBS_OFFSET":            {5, FieldInt},
	"NBIT":                  {6, FieldInt},
	"NPOL":                  {7, FieldInt},
	"NTIMESAMPLES":          {8, FieldInt},
	"NINPUTS":               {9, FieldInt},
	"NINPUTS_XGPU":          {10, FieldInt},
	"NCHANS":                {11, FieldInt},
	"CHAN_WIDTH":            {12, FieldInt},
	"FREQCENT":              {13, FieldInt},
	"COARSE_CHANNEL":        {14, FieldInt},
	"CORR_COARSE_CHANNEL":   {15, FieldInt},
	"SECS_PER_SUBOBS":       {16, FieldInt},
	"SAMPLE_RATE":           {17, FieldInt},
	"POPULATED":             {18, FieldInt},
	"PROJ_ID":               {19, FieldString},
	"EXPOSURE_SECS":         {20, FieldInt},
	"INT_TIME_MSEC":         {21, FieldInt},
	"FSCRUNCH_FACTOR":       {22, FieldInt},
	"APPLY_PATH_WEIGHTS":    {23, FieldInt},
	"APPLY_PATH_DELAYS":     {24, FieldInt},
	"APPLY_VIS_WEIGHTS":     {25, FieldInt},
	"TRANSFER_SIZE":         {26, FieldInt},
	"MC_IP":                 {27, FieldString},
	"MC_PORT":               {28, FieldInt},
	"MWAX_SUB_VER":          {29, FieldInt},
	"FRAC_DELAY_SIZE":       {30, FieldInt},
	"UNIXTIME":              {31, FieldInt},
	"UNIXTIME_MSEC":         {32, FieldInt},
	"FINECHAN_WIDTH_HZ":     {33, FieldInt},
}

// typeOf returns the registered type for key, or FieldString with ok
// false if key is not registered (an unknown key is stored as a
// string).
func typeOf(key string) (FieldType, bool) {
	spec, ok := fields[key]
	if !ok {
		return FieldString, false
	}

	return spec.typ, true
}

// indexOf returns the registered sort index for key, or unknownIndex if
// key is not registered.
func indexOf(key string) int {
	spec, ok := fields[key]
	if !ok {
		return unknownIndex
	}

	return spec.index
}
