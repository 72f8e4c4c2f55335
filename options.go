package quire

import (
	"github.com/tsawler/quire/classify"
	"github.com/tsawler/quire/convert"
	"github.com/tsawler/quire/format"
)

// ConvertOptions holds configuration for a conversion.
type ConvertOptions struct {
	// Engine options passed to convert.Convert
	engine convert.Options

	// Forced input format; Unknown means detect
	format format.Format
}

// defaultOptions returns the default conversion options.
func defaultOptions() ConvertOptions {
	return ConvertOptions{
		engine: convert.DefaultOptions(),
		format: format.Unknown,
	}
}

// clone creates a deep copy of ConvertOptions.
func (o ConvertOptions) clone() ConvertOptions {
	return ConvertOptions{
		engine: o.engine.Clone(),
		format: o.format,
	}
}

// forFormat resolves settings that depend on the input format. With no
// classifier chosen, XML gets the heuristic classifier and everything else
// the fixed HTML dictionary.
func (o ConvertOptions) forFormat(f format.Format) convert.Options {
	opts := o.engine.Clone()
	if opts.Classifier == nil {
		if f == format.XML {
			opts.Classifier = classify.NewHeuristic()
		} else {
			opts.Classifier = classify.HTML
		}
	}
	return opts
}
