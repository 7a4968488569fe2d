package prepare

import (
	"cyclerprep/internal/config"
	"cyclerprep/internal/datafile"
)

// Options selects what a preparation adds to an export.
type Options struct {
	// Overwrite prepares the input in place instead of a _prep copy.
	Overwrite   bool
	AddState    bool
	AddProtocol bool
	Encoding    datafile.Encoding
	// MinFreeMiB is the free space kept on the target filesystem on top of
	// the replacement itself.
	MinFreeMiB int
}

// OptionsFromConfig maps the [prepare] section onto Options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	if cfg == nil {
		return Options{AddState: true, AddProtocol: true, Encoding: datafile.UTF8}, nil
	}
	enc, err := datafile.ParseEncoding(cfg.Prepare.Encoding)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Overwrite:   cfg.Prepare.Overwrite,
		AddState:    cfg.Prepare.AddState,
		AddProtocol: cfg.Prepare.AddProtocol,
		Encoding:    enc,
		MinFreeMiB:  cfg.Prepare.MinFreeMiB,
	}, nil
}
