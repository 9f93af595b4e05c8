// Package main provides the autoquote CLI.
//
// Usage:
//
//	autoquote search --brand toyota --model corolla --trim xei --year 2019
//	autoquote listing https://auto.mercadolibre.com.ar/MLA-123
//
// See --help for all available options.
package main

func main() {
	Execute()
}
