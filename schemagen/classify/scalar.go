package classify

import (
	"encoding/json"
	"io"
	"math/big"
	"mime/multipart"
	"net/url"
	"os"
	"reflect"
	"time"

	"github.com/google/uuid"
)

type scalar struct {
	kind   Kind
	format string
}

// scalars maps full type names to their fixed description.
// Builtins are keyed by their Go name.
var scalars = map[string]scalar{
	"bool":   {KindBoolean, ""},
	"string": {KindString, ""},
	"[]byte": {KindString, FormatByte},

	"int8":   {KindInteger, FormatInt32},
	"int16":  {KindInteger, FormatInt32},
	"int32":  {KindInteger, FormatInt32},
	"uint8":  {KindInteger, FormatInt32},
	"uint16": {KindInteger, FormatInt32},

	"int":    {KindInteger, FormatInt64},
	"int64":  {KindInteger, FormatInt64},
	"uint32": {KindInteger, FormatInt64},

	"uint":    {KindInteger, FormatUint64},
	"uint64":  {KindInteger, FormatUint64},
	"uintptr": {KindInteger, FormatUint64},

	"float32": {KindNumber, FormatFloat},
	"float64": {KindNumber, FormatDouble},

	nameOf[json.Number](): {KindNumber, FormatDecimal},
	nameOf[big.Int]():     {KindInteger, ""},

	nameOf[uuid.UUID](): {KindString, FormatGUID},
	nameOf[url.URL]():   {KindString, FormatURI},
	nameOf[time.Time](): {KindString, FormatDateTime},

	// encoding/json writes durations as integer nanoseconds. See the
	// time.Duration entry under Open Question decisions in DESIGN.md.
	nameOf[time.Duration](): {KindInteger, FormatInt64},

	"cloud.google.com/go/civil.Date":     {KindString, FormatDate},
	"cloud.google.com/go/civil.Time":     {KindString, FormatTime},
	"cloud.google.com/go/civil.DateTime": {KindString, FormatDateTime},
}

// binaries are the type names treated as uploaded files or byte buffers.
var binaries = map[string]bool{
	nameOf[multipart.FileHeader](): true,
	nameOf[multipart.File]():       true,
	nameOf[os.File]():              true,
	nameOf[io.Reader]():            true,
	nameOf[io.ReadCloser]():        true,
}

// placeholders are the dynamic types that classify as KindNone.
var placeholders = map[string]bool{
	"any":                     true,
	"interface {}":            true,
	nameOf[json.RawMessage](): true,
}

func nameOf[T any]() string {
	t := reflect.TypeFor[T]()
	return t.PkgPath() + "." + t.Name()
}

// lookupScalar returns the table entry for name.
func lookupScalar(name string) (scalar, bool) {
	s, ok := scalars[name]
	return s, ok
}
