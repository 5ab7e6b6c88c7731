package inject

// Metafile mirrors the parts of esbuild's metafile JSON the synthesizer
// reads: each output's originating entry point, its associated CSS bundle,
// and its static imports.
type Metafile struct {
	Outputs map[string]Output `json:"outputs"`
}

// Output is one produced output file.
type Output struct {
	EntryPoint string   `json:"entryPoint,omitempty"`
	CSSBundle  string   `json:"cssBundle,omitempty"`
	Imports    []Import `json:"imports"`
}

// Import is one import edge of an output file.
type Import struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
}
