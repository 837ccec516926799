package client

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"pairlink/internal/constants"
)

const (
	colorReset  = constants.ColorReset
	colorBold   = constants.ColorBold
	colorDim    = constants.ColorDim
	colorCyan   = constants.ColorCyan
	colorGreen  = constants.ColorGreen
	colorYellow = constants.ColorYellow
	colorRed    = constants.ColorRed
)

func PrintBanner() {
	fmt.Println()
	fmt.Printf("  %s%spairlink%s %sv%s%s\n", colorBold, colorCyan, colorReset, colorBold, constants.Version, colorReset)
	fmt.Printf("  %sPair once, stay trusted everywhere%s\n", colorDim, colorReset)
	fmt.Println()
}

func printHint(text string) {
	fmt.Printf("  %s%s%s\n", colorDim, text, colorReset)
}

func printStep(text string) {
	fmt.Printf("  %s%s▸%s %s\n", colorBold, colorCyan, colorReset, text)
}

func printField(label, value, valueColor string) {
	fmt.Printf("  %s%-12s%s %s%s%s\n", colorDim, label, colorReset, valueColor, value, colorReset)
}

func printSep() {
	fmt.Printf("  %s%s%s\n", colorDim, strings.Repeat("─", 50), colorReset)
}

// PairingPrompt shows the one-time code the user must confirm on the
// hub, as text and as a QR code for hubs with a camera flow.
func PairingPrompt(code, hostname string) {
	fmt.Println()
	printStep("Pairing required")
	printHint("Confirm this code on the hub to trust \"" + hostname + "\"")
	fmt.Println()
	fmt.Printf("      %s%s%s %s%s\n", colorBold, colorYellow, code[:4], code[4:], colorReset)
	fmt.Println()

	if qr, err := qrcode.New(code, qrcode.Medium); err == nil {
		for _, line := range strings.Split(strings.TrimRight(qr.ToSmallString(false), "\n"), "\n") {
			fmt.Printf("      %s\n", line)
		}
		fmt.Println()
	}

	printHint("Waiting for approval (5 minute limit, ctrl+c to abort)...")
	fmt.Println()
}

// maskSession keeps enough of an identifier to recognize it in a
// listing without leaking the credential.
func maskSession(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "…"
}
