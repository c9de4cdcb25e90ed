// Package printing renders sale receipts as HTML and, when a Chrome instance
// is available, as PDF through the DevTools protocol.
//
// Example usage:
//
//	pdf, err := NewChromedpRenderer(ChromedpConfig{RemoteURL: "ws://chrome:9222"}, logger)
//	if err != nil {
//	    return err
//	}
//	printer, err := NewReceiptPrinter(NewMoneyFormatter("pt-BR", "BRL"), pdf)
//	if err != nil {
//	    return err
//	}
//	data, err := printer.RenderPDF(ctx, NewReceiptData(org, sale))
package printing
