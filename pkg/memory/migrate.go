package memory

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// schemaVersion is the current on-disk shape of every memory record.
// Records written before versioning (version 0) and pre-envelope list files
// (bare JSON arrays) are migrated at load time; stored bytes are never
// rewritten ad hoc.
const schemaVersion = 1

func decodeCore(raw []byte, out any) error {
	core, ok := out.(*CoreMemory)
	if !ok {
		return errors.New("decodeCore: unexpected target type")
	}
	if err := json.Unmarshal(raw, core); err != nil {
		return errors.Wrap(err, "failed to decode core memory")
	}
	core.Version = schemaVersion
	return nil
}

func decodeRelationship(raw []byte, out any) error {
	rel, ok := out.(*RelationshipMemory)
	if !ok {
		return errors.New("decodeRelationship: unexpected target type")
	}
	if err := json.Unmarshal(raw, rel); err != nil {
		return errors.Wrap(err, "failed to decode relationship memory")
	}
	if rel.Version == 0 && rel.Vibe == "" {
		rel.Vibe = VibeNew
	}
	if rel.Version == 0 && rel.FlirtLevel == "" {
		rel.FlirtLevel = FlirtLight
	}
	rel.Version = schemaVersion
	return nil
}

func decodePeople(raw []byte, out any) error {
	people, ok := out.(*PeopleFile)
	if !ok {
		return errors.New("decodePeople: unexpected target type")
	}
	if isJSONArray(raw) {
		// Pre-envelope shape: a bare list of people.
		var list []PersonMemory
		if err := json.Unmarshal(raw, &list); err != nil {
			return errors.Wrap(err, "failed to decode legacy people list")
		}
		*people = PeopleFile{Version: schemaVersion, People: list}
		return nil
	}
	if err := json.Unmarshal(raw, people); err != nil {
		return errors.Wrap(err, "failed to decode people memory")
	}
	if people.People == nil {
		people.People = []PersonMemory{}
	}
	people.Version = schemaVersion
	return nil
}

func decodeThreads(raw []byte, out any) error {
	threads, ok := out.(*ThreadsFile)
	if !ok {
		return errors.New("decodeThreads: unexpected target type")
	}
	if isJSONArray(raw) {
		var list []ActiveThread
		if err := json.Unmarshal(raw, &list); err != nil {
			return errors.Wrap(err, "failed to decode legacy threads list")
		}
		*threads = ThreadsFile{Version: schemaVersion, Threads: list}
		return nil
	}
	if err := json.Unmarshal(raw, threads); err != nil {
		return errors.Wrap(err, "failed to decode threads memory")
	}
	if threads.Threads == nil {
		threads.Threads = []ActiveThread{}
	}
	threads.Version = schemaVersion
	return nil
}

func decodeHistory(raw []byte, out any) error {
	history, ok := out.(*HistoryFile)
	if !ok {
		return errors.New("decodeHistory: unexpected target type")
	}
	if isJSONArray(raw) {
		var list []ConversationSummary
		if err := json.Unmarshal(raw, &list); err != nil {
			return errors.Wrap(err, "failed to decode legacy history list")
		}
		*history = HistoryFile{Version: schemaVersion, Summaries: list}
		return nil
	}
	if err := json.Unmarshal(raw, history); err != nil {
		return errors.Wrap(err, "failed to decode history memory")
	}
	if history.Summaries == nil {
		history.Summaries = []ConversationSummary{}
	}
	history.Version = schemaVersion
	return nil
}

func decodeSelf(raw []byte, out any) error {
	self, ok := out.(*SelfFile)
	if !ok {
		return errors.New("decodeSelf: unexpected target type")
	}
	if isJSONArray(raw) {
		var list []SelfNote
		if err := json.Unmarshal(raw, &list); err != nil {
			return errors.Wrap(err, "failed to decode legacy self notes list")
		}
		*self = SelfFile{Version: schemaVersion, Notes: list}
		return nil
	}
	if err := json.Unmarshal(raw, self); err != nil {
		return errors.Wrap(err, "failed to decode self notes")
	}
	if self.Notes == nil {
		self.Notes = []SelfNote{}
	}
	self.Version = schemaVersion
	return nil
}

func isJSONArray(raw []byte) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
