// Command loadgen smoke-tests a running geocell deployment: redis, the HTTP
// API, and the kafka invalidation topic.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"

	"github.com/open-spatial/geocell/internal/geodesy"
	"github.com/open-spatial/geocell/internal/index"
	"github.com/open-spatial/geocell/internal/invalidation"
)

func getenv(key, def string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return def
}

func testRedis(ctx context.Context, addr string) error {
	fmt.Println("Redis test")
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
	})
	defer func() { _ = client.Close() }()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	if err := client.Set(ctx, "hello", "world", 30*time.Second).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	val, err := client.Get(ctx, "hello").Result()
	if err != nil {
		return fmt.Errorf("redis get: %w", err)
	}
	fmt.Println("redis GET hello: ", val)
	return nil
}

func testAPI(baseURL string) error {
	fmt.Println("API test")
	base := strings.TrimRight(baseURL, "/")

	resp, err := http.Get(base + "/healthz")
	if err != nil {
		return fmt.Errorf("http get healthz: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthz status %d", resp.StatusCode)
	}

	encodeURL := base + "/v1/encode?scheme=h3&lat=59.3293&lng=18.0686&precision=8"
	resp, err = http.Get(encodeURL)
	if err != nil {
		return fmt.Errorf("http get encode: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("encode status %d: %s", resp.StatusCode, string(b))
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	fmt.Println("encode sample:")
	fmt.Println(string(body))
	return nil
}

func testKafka(brokers []string, topic string) error {
	fmt.Println("Kafka test")

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Version = sarama.V3_6_0_0
	prod, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return fmt.Errorf("producer create: %w", err)
	}
	defer func() { _ = prod.Close() }()

	ev := invalidation.Event{
		Version: 1,
		Op:      "invalidate",
		Scheme:  "h3",
		Tokens:  []string{demoToken()},
		Seq:     uint64(time.Now().UnixNano()),
		TS:      time.Now().UTC(),
	}
	msgBytes, _ := json.Marshal(ev)
	_, _, err = prod.SendMessage(&sarama.ProducerMessage{
		Topic: topic, Value: sarama.ByteEncoder(msgBytes),
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	fmt.Println("produced one invalidation event")

	consumer, err := sarama.NewConsumer(brokers, cfg)
	if err != nil {
		return fmt.Errorf("consumer create: %w", err)
	}
	defer func() { _ = consumer.Close() }()

	pc, err := consumer.ConsumePartition(topic, 0, sarama.OffsetNewest)
	if err != nil {
		pc, err = consumer.ConsumePartition(topic, 0, sarama.OffsetOldest)
		if err != nil {
			return fmt.Errorf("consume partition: %w", err)
		}
	}
	defer func() { _ = pc.Close() }()

	select {
	case m := <-pc.Messages():
		fmt.Println("consumed:", string(m.Value))
	case <-time.After(5 * time.Second):
		fmt.Println("no message consumed (timeout)")
	}
	return nil
}

func demoToken() string {
	codec, err := index.Lookup("h3")
	if err != nil {
		return ""
	}
	cell, err := codec.Encode(geodesy.LatLng{Lat: 59.3293, Lng: 18.0686}, 8)
	if err != nil {
		return ""
	}
	return cell.Token
}

func demoCodecs() {
	fmt.Println("Codec demo")
	for _, scheme := range index.Schemes() {
		codec, err := index.Lookup(scheme)
		if err != nil {
			continue
		}
		cell, err := codec.Encode(geodesy.LatLng{Lat: 59.3293, Lng: 18.0686}, 8)
		if err != nil {
			fmt.Println(scheme, "encode error:", err)
			continue
		}
		neighbors, err := codec.Neighbors(cell.Token)
		if err != nil {
			fmt.Println(scheme, "neighbors error:", err)
			continue
		}
		fmt.Printf("%s center: %s, neighbors: %d\n", scheme, cell.Token, len(neighbors))
	}
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	redisAddr := getenv("REDIS_ADDR", "localhost:6379")
	apiURL := getenv("GEOCELL_URL", "http://localhost:8090")
	brokers := strings.Split(getenv("KAFKA_BROKERS", "localhost:9092"), ",")
	topic := getenv("KAFKA_TOPIC", "cell-invalidation")

	if err := testRedis(ctx, redisAddr); err != nil {
		fmt.Println("Redis error:", err)
		return
	}
	if err := testAPI(apiURL); err != nil {
		fmt.Println("API error:", err)
		return
	}
	if err := testKafka(brokers, topic); err != nil {
		fmt.Println("Kafka error:", err)
		return
	}
	demoCodecs()
	fmt.Println("All tests completed")
}
