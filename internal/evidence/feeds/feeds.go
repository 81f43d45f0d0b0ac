// SPDX-License-Identifier: Apache-2.0

package feeds

import "github.com/witnessreport/witness-report/internal/evidence"

// DefaultPipeline builds a Pipeline with all feed loaders registered.
// Order matters: manifests are matched by extension or content before a
// path is tried as a directory. Directory feeds skip the ignore paths.
func DefaultPipeline(hashes bool, ignore ...string) *evidence.Pipeline {
	return evidence.NewPipeline(
		NewManifestLoader(),
		NewDirectoryLoader(hashes, ignore...),
	)
}
