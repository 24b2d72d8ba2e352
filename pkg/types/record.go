// Package types holds the public record shape produced by the extraction
// pipeline and consumed by the output writers.
package types

// LinkRef is an anchor found inside an answer panel. Href is absolute.
type LinkRef struct {
	Text string `json:"text" yaml:"text" bson:"text"`
	Href string `json:"href" yaml:"href" bson:"href"`
}

// ImageRef is an image found inside an answer panel. Src is absolute or a data URI.
type ImageRef struct {
	Src string `json:"src" yaml:"src" bson:"src"`
	Alt string `json:"alt" yaml:"alt" bson:"alt"`
}

// Record is one question/answer pair. Records are immutable once emitted.
type Record struct {
	SourceURL  string     `json:"source_url" yaml:"source_url" bson:"source_url"`
	Section    string     `json:"section" yaml:"section" bson:"section"`
	Question   string     `json:"question" yaml:"question" bson:"question"`
	AnswerText string     `json:"answer_text" yaml:"answer_text" bson:"answer_text"`
	AnswerHTML string     `json:"answer_html" yaml:"answer_html" bson:"answer_html"`
	Links      []LinkRef  `json:"links" yaml:"links" bson:"links"`
	Images     []ImageRef `json:"images" yaml:"images" bson:"images"`
}

// Normalized returns a copy whose Links and Images are non-nil, so that
// serializers emit [] instead of null.
func (r Record) Normalized() Record {
	if r.Links == nil {
		r.Links = []LinkRef{}
	}
	if r.Images == nil {
		r.Images = []ImageRef{}
	}
	return r
}
