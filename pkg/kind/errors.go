// SPDX-License-Identifier: BSD-3-Clause

package kind

import "errors"

// ErrTableInvalid indicates a configuration table is empty, unordered, or
// otherwise fails the Auxiliary Configuration Check's invariants.
var ErrTableInvalid = errors.New("configuration table invalid")
