package badger

import "fmt"

// Key prefixes for different data types
const (
	runStatePrefix    = "runst"
	phaseOutputPrefix = "runout"
	loadedConvPrefix  = "runldc"
	rawExportPrefix   = "rawexp"
	rawMetaPrefix     = "rawmet"
)

// makeRunStateKey generates a key for a run's persisted state.
func makeRunStateKey(runID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", runStatePrefix, runID))
}

// makePhaseOutputKey generates a key for a phase's serialized output.
// Format: prefix:runID:phase
func makePhaseOutputKey(runID, phase string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", phaseOutputPrefix, runID, phase))
}

// makeLoadedConvKey generates a key marking a conversation as committed.
// Format: prefix:runID:conversationID
func makeLoadedConvKey(runID, conversationID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", loadedConvPrefix, runID, conversationID))
}

// makeLoadedConvPrefix generates the iteration prefix for a run's
// loaded-conversation markers.
func makeLoadedConvPrefix(runID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", loadedConvPrefix, runID))
}

// makeRawExportKey generates a key for a raw payload audit copy.
func makeRawExportKey(exportID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", rawExportPrefix, exportID))
}

// makeRawMetaKey generates a key for a raw payload's metadata.
func makeRawMetaKey(exportID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", rawMetaPrefix, exportID))
}
