package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gvitanovic/cqrs/domain"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

type Config struct {
	QueryURL string        `env:"QUERY_URL,default=http://localhost:4000"`
	Timeout  time.Duration `env:"VIEWER_TIMEOUT,default=5s"`
}

func main() {
	// 1. Load config
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()
	client := &http.Client{}

	// 2. Projection status
	status, _, err := get(ctx, client, config.QueryURL+"/ready")
	if err != nil {
		log.Fatalf("Query service unreachable: %v", err)
	}
	if status == http.StatusOK {
		color.Green.Println("Projection RUNNING")
	} else {
		color.Yellow.Println("Projection CONNECTING, results may lag behind the log")
	}

	// 3. Orders
	status, body, err := get(ctx, client, config.QueryURL+"/orders")
	if err != nil {
		log.Fatalf("Fetching orders failed: %v", err)
	}
	if status != http.StatusOK {
		color.Red.Printf("%d %s\n", status, body)
		return
	}
	var orders domain.ReadModel
	if err = json.Unmarshal(body, &orders); err != nil {
		log.Fatalf("Decoding orders failed: %v", err)
	}
	render(orders)
}

func get(ctx context.Context, client *http.Client, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}

func render(orders domain.ReadModel) {
	ids := lo.Keys(orders)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Order ID", "Product", "Quantity"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, id := range ids {
		order := orders[id]
		table.Append([]string{string(id), order.Product, strconv.Itoa(order.Quantity)})
	}
	table.Render()
	fmt.Printf("%d orders\n", len(ids))
}
