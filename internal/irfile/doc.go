// Package irfile loads IR documents into the core's data model. YAML is the
// authoring format, one document per library; msgpack snapshots are the
// interchange format for tool-to-tool handoff of an already-lowered type
// set. Attribute syntax is resolved here, outside the core: the pipeline
// only ever sees the resolved rule lists.
package irfile
