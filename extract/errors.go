// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package extract

import (
	"errors"
	"fmt"
)

// ErrorKind classifies extraction failures. Extraction errors are
// fatal to the run; no partial extraction state is usable.
type ErrorKind string

const (
	// KindNotFound indicates the source path does not exist or is unreadable.
	KindNotFound ErrorKind = "not_found"

	// KindMalformed indicates the document could not be decoded.
	KindMalformed ErrorKind = "malformed"

	// KindAmbiguousArchiveMember indicates the archive holds multiple
	// candidate documents and none was selected.
	KindAmbiguousArchiveMember ErrorKind = "ambiguous_archive_member"

	// KindMissingField indicates the document lacks a user-identifying field.
	KindMissingField ErrorKind = "missing_field"
)

// ExtractionError is a classified extraction failure.
type ExtractionError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed (%s): %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("extraction failed (%s): %s", e.Kind, e.Detail)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an ExtractionError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		return extractionErr.Kind == kind
	}
	return false
}
