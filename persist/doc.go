// The persist package saves an in-memory value of an arbitrary type to
// a byte sink and later reconstructs a value of a requested type from
// the stored bytes, optionally compressed, across three surfaces:
// streams, byte slices, and file paths.
//
// Loads run a compatibility pipeline so that payloads written by older,
// structurally different versions of a type remain loadable: the
// requested type's compatibility hook (see the compat package) is
// installed under a process-wide resolution lock, legacy envelopes are
// redirected onto current types, and decoded values that do not exactly
// match the requested type pass through a coercion fallback (see the
// coerce package).
//
// Errors reported by the pipeline are matchable with errors.Is:
// ErrNotFound and ErrSerialization from this package,
// compression.ErrUnknownMode and compression.ErrCorrupt,
// coerce.ErrTypeMismatch, and compat.ErrUnresolvable and
// compat.ErrUnknownType.
//
// Saves are not serialized against each other or against loads; only
// loads contend on the resolution lock, because only loads touch
// process-wide resolution state. File writes are not transactional:
// callers wanting atomicity should write to a temporary path and
// rename.
package persist
