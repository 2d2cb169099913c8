package chemstation

import (
	"encoding/xml"
	"fmt"

	"github.com/harrison/chrouter/internal/filelock"
)

type xmlSample struct {
	XMLName xml.Name   `xml:"sample"`
	Format  string     `xml:"format,attr"`
	Source  string     `xml:"source,attr"`
	Name    string     `xml:"name"`
	Date    string     `xml:"date"`
	Method  string     `xml:"method"`
	Signal  *xmlSignal `xml:"signal,omitempty"`
}

type xmlSignal struct {
	StartMinutes float64    `xml:"start,attr"`
	EndMinutes   float64    `xml:"end,attr"`
	Points       int        `xml:"points,attr"`
	Values       []xmlPoint `xml:"point"`
}

type xmlPoint struct {
	Time  float64 `xml:"t,attr"`
	Value float64 `xml:"v,attr"`
}

// MarshalXMLDocument renders the record as an indented <sample> document.
func (r *Record) MarshalXMLDocument() ([]byte, error) {
	doc := xmlSample{
		Format: r.Kind.Version(),
		Source: r.Path,
		Name:   r.SampleName,
		Date:   r.SampleDate,
		Method: r.AnalysisMethod,
	}
	if r.Signal != nil {
		sig := &xmlSignal{
			StartMinutes: r.Signal.StartMinutes,
			EndMinutes:   r.Signal.EndMinutes,
			Points:       len(r.Signal.Values),
			Values:       make([]xmlPoint, len(r.Signal.Values)),
		}
		for i, v := range r.Signal.Values {
			sig.Values[i] = xmlPoint{Time: r.Signal.TimeAt(i), Value: v}
		}
		doc.Signal = sig
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sample xml: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// WriteXML writes the XML export to path, replacing any existing file.
func (r *Record) WriteXML(path string) error {
	data, err := r.MarshalXMLDocument()
	if err != nil {
		return err
	}
	if err := filelock.AtomicWrite(path, data); err != nil {
		return fmt.Errorf("write sample xml: %w", err)
	}
	return nil
}
