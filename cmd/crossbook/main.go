package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	match "github.com/0x5487/crossbook"
	"github.com/0x5487/crossbook/protocol"
	"github.com/0x5487/crossbook/sink"
	"github.com/shopspring/decimal"
)

func main() {
	var (
		symbol       = flag.String("symbol", "XYZ", "instrument symbol")
		closePrice   = flag.String("close", "50.32", "reference close price")
		tickSize     = flag.String("tick", "0.01", "tick size")
		outDir       = flag.String("out", ".", "directory of the execution report log")
		kafkaBrokers = flag.String("kafka-brokers", "", "comma separated brokers; reports go to kafka instead of the log file when set")
		kafkaTopic   = flag.String("kafka-topic", "exec-reports", "kafka topic for execution reports")
		replay       = flag.String("replay", "", "file of JSON commands (one per line) to apply before the interactive loop")
	)
	flag.Parse()

	// keep the terminal readable, the loop owns stdout
	match.SetLogger(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := run(*symbol, *closePrice, *tickSize, *outDir, *kafkaBrokers, *kafkaTopic, *replay, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "crossbook:", err)
		os.Exit(1)
	}
}

func run(symbol, closeStr, tickStr, outDir, brokers, topic, replay string, in io.Reader, out io.Writer) error {
	closePrice, err := decimal.NewFromString(closeStr)
	if err != nil {
		return fmt.Errorf("parse close price: %w", err)
	}
	tick, err := decimal.NewFromString(tickStr)
	if err != nil {
		return fmt.Errorf("parse tick size: %w", err)
	}

	book := match.NewOrderBook(symbol, closePrice, match.WithTickSize(tick))

	var publisher match.PublishLog
	if brokers != "" {
		publisher = sink.NewKafkaPublishLog(strings.Split(brokers, ","), topic)
	} else {
		publisher = sink.NewFilePublishLog(outDir, symbol)
	}

	return serve(book, publisher, replay, in, out)
}

// serve runs the book against publisher until the operator exits, then stops
// the book, flushes the writer and closes the publisher when it is closable.
func serve(book *match.OrderBook, publisher match.PublishLog, replay string, in io.Reader, out io.Writer) error {
	if err := book.Open(); err != nil {
		return err
	}
	writer := match.NewReportWriter(book, publisher)
	writer.Start()

	var loopErr error
	if replay != "" {
		loopErr = replayCommands(book, replay)
	}
	if loopErr == nil {
		loopErr = newOperator(book, in, out).loop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := book.Close(ctx); err != nil {
		return fmt.Errorf("close book: %w", err)
	}
	if err := writer.Stop(ctx); err != nil {
		return fmt.Errorf("stop report writer: %w", err)
	}
	if closer, ok := publisher.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("close report sink: %w", err)
		}
	}
	return loopErr
}

func replayCommands(book *match.OrderBook, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open replay file: %w", err)
	}
	defer file.Close()

	serializer := protocol.DefaultJSONSerializer{}
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var cmd protocol.Command
		if err := serializer.Unmarshal([]byte(text), &cmd); err != nil {
			return fmt.Errorf("replay line %d: %w", line, err)
		}
		if _, err := book.ExecuteCommand(&cmd); err != nil {
			return fmt.Errorf("replay line %d: %w", line, err)
		}
	}
	return scanner.Err()
}
