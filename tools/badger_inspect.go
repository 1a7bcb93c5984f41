package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gvitanovic/cqrs/repositories"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// Dumps the durable read model written by the consumer with STORE_BACKEND=badger.
func main() {
	dbPath := flag.String("db", "./data/orders", "Path to badger DB")
	product := flag.String("product", "", "Only show orders of this product")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	orders, err := repositories.NewOrderRepository(db, slog.Default()).All()
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Product", "Quantity"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	ids := lo.Keys(orders)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	shown := 0
	for _, id := range ids {
		order := orders[id]
		if *product != "" && !strings.EqualFold(order.Product, *product) {
			continue
		}
		table.Append([]string{"order:" + string(id), order.Product, strconv.Itoa(order.Quantity)})
		shown++
	}
	table.Render()
	fmt.Printf("\n%d/%d orders\n", shown, len(ids))
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
