package cache

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns the ETag for value: a quoted xxhash64 of its JSON
// encoding. encoding/json emits map keys in sorted order, so equal values
// always produce equal ETags.
func Fingerprint(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		data = fmt.Appendf(nil, "%#v", value)
	}
	return strconv.Quote(strconv.FormatUint(xxhash.Sum64(data), 16))
}
