package objects

import jsoniter "github.com/json-iterator/go"

// DebugJSON renders an Object's class and properties as compact JSON, for
// the numbered debug verbosity nlog.Debugf gates on — the Go counterpart
// of pysiriproxy's unconditional self.log.debug(obj) line, made opt-in
// rather than always-on.
func DebugJSON(o Object) string {
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(struct {
		Class      string         `json:"class"`
		Group      string         `json:"group,omitempty"`
		RefID      string         `json:"refId,omitempty"`
		AceID      string         `json:"aceId,omitempty"`
		Properties map[string]any `json:"properties"`
	}{
		Class:      o.Class,
		Group:      o.Group,
		RefID:      o.RefID,
		AceID:      o.AceID,
		Properties: o.Properties,
	})
	if err != nil {
		return o.Class
	}
	return string(b)
}
