// SPDX-License-Identifier: GPL-3.0-or-later

package buildinfo

// Version is set at build time with -ldflags "-X".
var Version = "v0.0.0"
