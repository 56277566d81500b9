package portal

import (
	"context"
	"github.com/eclipse/paho.golang/paho"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/event"
	"go.uber.org/zap"
	"sync"
	"time"
)

// brokerRequestTimeout is the timeout for subscribe and unsubscribe requests to
// the MQTT broker.
const brokerRequestTimeout = 5 * time.Second

// mqttInboundRouter abstracts paho.Router with only stuff that is needed for
// router.
type mqttInboundRouter interface {
	RegisterHandler(topic string, handler paho.MessageHandler)
	UnregisterHandler(topic string)
}

// mqttBroker is used for telling the MQTT broker which topics we are interested
// in.
type mqttBroker interface {
	Subscribe(ctx context.Context, s *paho.Subscribe) (*paho.Suback, error)
	Unsubscribe(ctx context.Context, u *paho.Unsubscribe) (*paho.Unsuback, error)
}

// subscription is a container for the lifetime context.Context and the channel
// to forward the received paho.Publish message to.
type subscription struct {
	lifetime context.Context
	forward  chan<- event.Event[any]
}

// registeredHandler is a container for subscriptions to serve.
type registeredHandler struct {
	// subscriptions contains all active subscriptions that are served by the
	// handler.
	subscriptions map[*subscription]struct{}
	// subscriptionsMutex locks subscriptions.
	subscriptionsMutex sync.RWMutex
}

// Handler returns a paho.MessageHandler that forwards to all subscriptions for
// the handler.
func (handler *registeredHandler) Handler() paho.MessageHandler {
	return func(publish *paho.Publish) {
		// Forward to all listeners.
		var allForwarded sync.WaitGroup
		handler.subscriptionsMutex.RLock()
		for sub := range handler.subscriptions {
			allForwarded.Add(1)
			go func(sub *subscription) {
				defer allForwarded.Done()
				select {
				case <-sub.lifetime.Done():
				case sub.forward <- event.Event[any]{Publish: publish}:
				}
			}(sub)
		}
		handler.subscriptionsMutex.RUnlock()
		allForwarded.Wait()
	}
}

// router is used for multiplexing MQTT subscriptions and forwarding received
// messages according to them.
type router struct {
	logger *zap.Logger
	// inbound is the actual router that performs the matching.
	inbound mqttInboundRouter
	// broker is set when the connection is up. If nil, subscriptions are only
	// registered locally and sent to the broker once the connection is up.
	broker mqttBroker
	// registeredHandlers holds all handlers by subscribed topics.
	registeredHandlers map[Topic]*registeredHandler
	// registeredHandlersMutex locks registeredHandlers and broker.
	registeredHandlersMutex sync.Mutex
}

func newRouter(logger *zap.Logger, inbound mqttInboundRouter) *router {
	return &router{
		logger:             logger,
		inbound:            inbound,
		registeredHandlers: make(map[Topic]*registeredHandler),
	}
}

// setBroker sets the mqttBroker to use and subscribes all currently registered
// topics. This is called each time the connection comes up.
func (router *router) setBroker(ctx context.Context, broker mqttBroker) {
	router.registeredHandlersMutex.Lock()
	defer router.registeredHandlersMutex.Unlock()
	router.broker = broker
	for topic := range router.registeredHandlers {
		router.subscribeAtBroker(ctx, topic)
	}
}

// subscribeAtBroker requests the subscription for the given Topic at the
// broker. The registeredHandlersMutex must be locked.
func (router *router) subscribeAtBroker(ctx context.Context, topic Topic) {
	if router.broker == nil {
		return
	}
	timeout, cancel := context.WithTimeout(ctx, brokerRequestTimeout)
	defer cancel()
	_, err := router.broker.Subscribe(timeout, &paho.Subscribe{
		Subscriptions: map[string]paho.SubscribeOptions{
			string(topic): {QoS: mqttQOS},
		},
	})
	if err != nil {
		errors.Log(router.logger, errors.Error{
			Code:    errors.ErrCommunication,
			Err:     err,
			Message: "subscribe at mqtt broker",
			Details: errors.Details{"topic": topic},
		})
	}
}

// unsubscribeAtBroker tells the broker that we are no longer interested in the
// given Topic. The registeredHandlersMutex must be locked.
func (router *router) unsubscribeAtBroker(topic Topic) {
	if router.broker == nil {
		return
	}
	timeout, cancel := context.WithTimeout(context.Background(), brokerRequestTimeout)
	defer cancel()
	_, err := router.broker.Unsubscribe(timeout, &paho.Unsubscribe{
		Topics: []string{string(topic)},
	})
	if err != nil {
		errors.Log(router.logger, errors.Error{
			Code:    errors.ErrCommunication,
			Err:     err,
			Message: "unsubscribe at mqtt broker",
			Details: errors.Details{"topic": topic},
		})
	}
}

// subscribe for the given Topic and forward messages to the given channel until
// the context.Context is done.
func (router *router) subscribe(lifetime context.Context, topic Topic, forward chan<- event.Event[any]) {
	router.registeredHandlersMutex.Lock()
	defer router.registeredHandlersMutex.Unlock()
	// Check if already existing.
	handlerRef, ok := router.registeredHandlers[topic]
	if !ok {
		handlerRef = &registeredHandler{subscriptions: make(map[*subscription]struct{})}
		router.registeredHandlers[topic] = handlerRef
		router.inbound.RegisterHandler(string(topic), handlerRef.Handler())
		router.subscribeAtBroker(lifetime, topic)
		router.logger.Debug("subscribed to topic", zap.Any("topic", topic))
	}
	// Add subscription.
	sub := &subscription{
		lifetime: lifetime,
		forward:  forward,
	}
	handlerRef.subscriptionsMutex.Lock()
	handlerRef.subscriptions[sub] = struct{}{}
	handlerRef.subscriptionsMutex.Unlock()
	// Unsubscribe when lifetime done.
	go func() {
		<-lifetime.Done()
		router.unsubscribe(topic, sub)
	}()
}

// unsubscribe the given subscription for the Topic. Only router should call this!
func (router *router) unsubscribe(topic Topic, sub *subscription) {
	router.registeredHandlersMutex.Lock()
	defer router.registeredHandlersMutex.Unlock()
	// Get handler.
	handler, ok := router.registeredHandlers[topic]
	if !ok {
		errors.Log(router.logger, errors.NewInternalError("unsubscribe called for unknown registered handler",
			errors.Details{"topic": topic}))
		return
	}
	// Remove subscription.
	handler.subscriptionsMutex.Lock()
	defer handler.subscriptionsMutex.Unlock()
	if _, ok := handler.subscriptions[sub]; !ok {
		errors.Log(router.logger, errors.NewInternalError("unsubscribe with unknown subscription for handler",
			errors.Details{"topic": topic}))
		return
	}
	delete(handler.subscriptions, sub)
	// Check if subscriptions left as then we do not need to unregister the handler.
	if len(handler.subscriptions) > 0 {
		return
	}
	delete(router.registeredHandlers, topic)
	router.inbound.UnregisterHandler(string(topic))
	router.unsubscribeAtBroker(topic)
}
