package mq

import (
	"context"
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ohrachov/plantmon/internal/notify"
	clientmq "github.com/ohrachov/plantmon/pkg/mq"
)

var _ = Describe("Plant events over RabbitMQ", func() {
	var (
		client    *clientmq.Client
		queueName string
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		queueName = "plant-events-" + time.Now().Format("20060102-150405.000")

		var err error
		client, err = clientmq.New(&clientmq.Config{
			Logger: testLogger,
			URL:    rabbitmqURL,
			Queue:  queueName,
		})
		Expect(err).NotTo(HaveOccurred())

		// Give the client time to connect
		time.Sleep(2 * time.Second)
	})

	AfterEach(func() {
		if client != nil {
			_ = client.Close()
			client = nil
		}
	})

	It("publishes raw payloads with confirmation", func() {
		pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		Expect(client.Publish(pubCtx, []byte("test message"))).To(Succeed())
	})

	It("handles rapid successive publishes", func() {
		pubCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		for i := 0; i < 10; i++ {
			Expect(client.Publish(pubCtx, []byte("rapid message"))).To(Succeed())
		}
	})

	It("round-trips an alert through the notification channel", func() {
		deliveries, err := client.Consume()
		Expect(err).NotTo(HaveOccurred())

		// Wait for the consumer to register on the server
		time.Sleep(500 * time.Millisecond)

		channel := notify.NewAMQPChannel(client)
		event := notify.Event{
			Timestamp: time.Now().UTC().Truncate(time.Second),
			Kind:      "alert",
			Message:   "Soil moisture is too low! Consider watering the plant.",
		}

		pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		Expect(channel.Send(pubCtx, event)).To(Succeed())

		var delivery amqp.Delivery
		Eventually(deliveries, 10*time.Second).Should(Receive(&delivery))
		Expect(delivery.Ack(false)).To(Succeed())
		Expect(delivery.ContentType).To(Equal("application/json"))

		var delivered notify.Event
		Expect(json.Unmarshal(delivery.Body, &delivered)).To(Succeed())
		Expect(delivered).To(Equal(event))
	})
})
