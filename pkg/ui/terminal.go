package ui

import (
	"fmt"
	"io"
	"os"
)

// Out is where the Print helpers write
var Out io.Writer = os.Stdout

// PrintBanner prints the program title
func PrintBanner(version string) {
	fmt.Fprintln(Out, titleStyle.Render("igarchiver "+version))
}

// PrintError prints an error message
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	fmt.Fprintln(Out, errorStyle.Render(msg))
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	fmt.Fprintln(Out, successStyle.Render(msg))
}

// PrintInfo prints a label and its value
func PrintInfo(label string, value string) {
	fmt.Fprintf(Out, "%s: %s\n", labelStyle.Render(label), valueStyle.Render(value))
}

// PrintWarning prints a warning message
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	fmt.Fprintln(Out, warningStyle.Render(msg))
}
