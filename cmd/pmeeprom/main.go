// Command pmeeprom reads, writes and verifies the EEPROM of Polimaster
// PM1703 and PM1401 series radiation pagers over an infrared link.
//
// Usage:
//
//	pmeeprom -o r -s 0 -e 1024 -f eeprom_dump.hex
//	pmeeprom -o v -f eeprom_dump.hex
//	pmeeprom trace session.ptrace
package main

import "os"

func main() {
	os.Exit(Execute())
}
