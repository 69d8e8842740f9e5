// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import "syscall"

// fatalErrnos end a watch. ReadDirectoryChangesW has no watch limit, but
// handle exhaustion (ERROR_TOO_MANY_OPEN_FILES), a deleted watch root
// (ERROR_INVALID_HANDLE) and a failed buffer allocation
// (ERROR_NOT_ENOUGH_MEMORY) leave it unable to deliver events.
var fatalErrnos = []syscall.Errno{4, 6, 8}
