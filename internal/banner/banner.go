// Package banner renders the CLI start-up banner.
package banner

import "fmt"

const art = `
  ___  ___  __ _ _ __ ___   ___  _ __ _ __ | |__
 / __|/ _ \/ _' | '_ ' _ \ / _ \| '__| '_ \| '_ \
 \__ \  __/ (_| | | | | | | (_) | |  | |_) | | | |
 |___/\___|\__, |_| |_| |_|\___/|_|  | .__/|_| |_|
           |___/                     |_|
`

// Banner returns the banner followed by the version line.
func Banner(version string) string {
	return fmt.Sprintf("%s\n  morpheme segmentation  %s\n\n", art, version)
}
