package main

import (
	"context"
	"encoding/json"
	"flag"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	commandv1 "github.com/999bits/wildfire/internal/domain/command/v1"
	"github.com/999bits/wildfire/pkg/logger"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

func main() {
	var (
		brokers  = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic    = flag.String("topic", "wildfire.commands", "Kafka command topic")
		file     = flag.String("file", "", "JSON file with commands (optional, generates a scenario if not provided)")
		delay    = flag.Duration("delay", 50*time.Millisecond, "Delay between commands")
		operator = flag.String("operator", "exchange", "Custody identity of the engine")
		traders  = flag.Int("traders", 4, "Number of generated sellers and buyers")
		rounds   = flag.Int("rounds", 25, "Number of generated trading rounds")
		lot      = flag.Uint64("lot", 1, "Trade lot used by generated commands")
	)
	flag.Parse()

	log, err := logger.NewLogger(logger.WithEncoding("console"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	var commands []commandv1.Command
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Error(err, logger.NewField("file", *file))
			os.Exit(1)
		}
		if err := json.Unmarshal(data, &commands); err != nil {
			log.Error(err, logger.NewField("file", *file))
			os.Exit(1)
		}
	} else {
		commands = generateScenario(*operator, *traders, *rounds, *lot)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:        *topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	log.Info("sending commands",
		logger.NewField("count", len(commands)),
		logger.NewField("brokers", *brokers),
		logger.NewField("topic", *topic),
	)

	ctx := context.Background()
	sent := 0
	for i, cmd := range commands {
		if cmd.RequestID == "" {
			cmd.RequestID = uuid.NewString()
		}
		value, err := json.Marshal(cmd)
		if err != nil {
			log.Error(err, logger.NewField("index", i))
			continue
		}

		msg := kafka.Message{
			Key:     []byte(cmd.Caller),
			Value:   value,
			Time:    time.Now(),
			Headers: []kafka.Header{{Key: "request-id", Value: []byte(cmd.RequestID)}},
		}
		if err := writer.WriteMessages(ctx, msg); err != nil {
			log.Error(err, logger.NewField("index", i), logger.NewField("type", cmd.Type))
			continue
		}
		sent++

		if sent%100 == 0 || i == len(commands)-1 {
			log.Info("progress", logger.NewField("sent", sent), logger.NewField("total", len(commands)))
		}
		if i < len(commands)-1 {
			time.Sleep(*delay)
		}
	}

	log.Info("done", logger.NewField("sent", sent), logger.NewField("failed", len(commands)-sent))
}

// generateScenario funds sellers and buyers through the dev ledger, then
// alternates resting orders with fulfilments and the occasional cancel.
func generateScenario(operator string, traders, rounds int, lot uint64) []commandv1.Command {
	var commands []commandv1.Command
	sellers := make([]string, traders)
	buyers := make([]string, traders)
	for i := range traders {
		sellers[i] = "seller-" + uuid.NewString()[:8]
		buyers[i] = "buyer-" + uuid.NewString()[:8]

		commands = append(commands,
			commandv1.Command{Type: commandv1.TypeMint, Caller: sellers[i], LotID: lot, Amount: 10_000},
			commandv1.Command{Type: commandv1.TypeAuthorizeOperator, Caller: sellers[i], Operator: operator, Approved: true},
			commandv1.Command{Type: commandv1.TypeDeposit, Caller: buyers[i], Amount: 1_000_000},
			commandv1.Command{Type: commandv1.TypeApprove, Caller: buyers[i], Spender: operator, Amount: 1_000_000},
			// buyers authorise the operator so buy-side fulfilments can collect their lots
			commandv1.Command{Type: commandv1.TypeAuthorizeOperator, Caller: buyers[i], Operator: operator, Approved: true},
		)
	}

	var orderID uint64
	for range rounds {
		seller := sellers[rand.IntN(traders)]
		buyer := buyers[rand.IntN(traders)]
		price := uint64(90 + rand.IntN(20))
		amount := uint64(1 + rand.IntN(20))

		commands = append(commands,
			commandv1.Command{Type: commandv1.TypeCreateSell, Caller: seller, Price: price, Amount: amount, LotID: lot},
			commandv1.Command{Type: commandv1.TypeFulfillSell, Caller: buyer, Maker: seller, Price: price, Amount: 1 + uint64(rand.IntN(int(amount))), LotID: lot},
		)
		orderID++

		if rand.IntN(4) == 0 {
			commands = append(commands,
				commandv1.Command{Type: commandv1.TypeCancelSell, Caller: seller, Price: price, OrderID: orderID, LotID: lot},
			)
		}
	}
	return commands
}
