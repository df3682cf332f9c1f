package main

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qxcheng/rtos-kernel/kernel"
	"github.com/qxcheng/rtos-kernel/kernel/cap"
	"github.com/qxcheng/rtos-kernel/kernel/event"
	"github.com/qxcheng/rtos-kernel/kernel/mem"
	"github.com/qxcheng/rtos-kernel/kernel/multiwait"
	"github.com/qxcheng/rtos-kernel/kernel/queue"
	"github.com/qxcheng/rtos-kernel/kernel/sched"
	"github.com/qxcheng/rtos-kernel/pkg/buffer"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the producer/waiter scenario",
	RunE:  runScenario,
}

func init() {
	runCmd.Flags().String("config", "mwdemo.toml", "scenario config file")
	rootCmd.AddCommand(runCmd)
}

var (
	queueColor = color.New(color.FgGreen)
	chanColor  = color.New(color.FgYellow)
	futexColor = color.New(color.FgBlue)
)

// 通道上用来演示的事件位
const demoChannelBit = 0x10

func runScenario(cmd *cobra.Command, args []string) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	priority, err := safecast.Conv[uint8](cfg.Scenario.WaiterPriority)
	if err != nil {
		return fmt.Errorf("waiter_priority out of range: %w", err)
	}

	var clock kernel.Clock = kernel.StdClock{}
	started := clock.NowMonotonic()

	k := sched.New()
	caps := cap.NewTable()
	heap := mem.NewHeap(cfg.Kernel.HeapBytes)
	mgr := multiwait.NewManager(k, caps, heap)

	q, kerr := queue.New(mgr, cfg.Queue.Capacity)
	if kerr != nil {
		return fmt.Errorf("queue: %s", kerr)
	}
	ch := event.New(mgr)
	word := uint32(0)
	caps.GrantLoad(&word)

	th := k.NewThread(priority)
	collected := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- waiterLoop(mgr, th, q, ch, &word, cfg.Scenario.Rounds, collected)
	}()

	// 生产者：轮流往三个事件源各投一次，收到收取确认再投下一个
	for i := 0; i < cfg.Scenario.Rounds; i++ {
		switch i % 3 {
		case 0:
			msg := buffer.NewViewFromBytes([]byte(fmt.Sprintf("msg-%d", i)))
			if kerr := q.Send(msg); kerr != nil {
				return fmt.Errorf("send: %s", kerr)
			}
		case 1:
			if kerr := ch.Set(demoChannelBit); kerr != nil {
				return fmt.Errorf("set: %s", kerr)
			}
		case 2:
			k.Lock()
			word++
			k.Unlock()
			mgr.WakeWaiters(&word, 0, ^uint32(0))
		}
		<-collected
	}

	if err := <-done; err != nil {
		return err
	}
	fmt.Printf("%d rounds in %dns\n", cfg.Scenario.Rounds, clock.NowMonotonic()-started)
	return nil
}

// waiterLoop 每一轮重新注册三个事件源，挂起直到任何一个触发，
// 收取并打印结果，消费掉触发源的状态后确认本轮结束。
func waiterLoop(mgr *multiwait.Manager, th *sched.Thread, q *queue.Queue,
	ch *event.Channel, word *uint32, rounds int, collected chan<- struct{}) error {

	k := mgr.Kernel()
	mw, kerr := mgr.Create(3)
	if kerr != nil {
		return fmt.Errorf("create: %s", kerr)
	}
	defer mw.Destroy()

	k.Lock()
	snapshot := *word
	k.Unlock()

	for round := 0; round < rounds; round++ {
		specs := []multiwait.EventSpec{
			{Kind: multiwait.EventQueue, Source: q.Handle(), Value: queue.EventRecv},
			{Kind: multiwait.EventChannel, Source: ch.Handle(), Value: demoChannelBit},
			{Kind: multiwait.EventFutex, Source: word, Value: snapshot},
		}
		outcome, kerr := mw.SetEvents(specs)
		if kerr != nil {
			return fmt.Errorf("set events: %s", kerr)
		}
		if outcome == multiwait.OutcomeSleep {
			mw.Wait(th, kernel.TimeoutForever())
		}

		results := make([]multiwait.EventSpec, 3)
		mw.Collect(results)

		if results[0].Value != 0 {
			msg, kerr := q.Recv()
			if kerr != nil {
				return fmt.Errorf("recv: %s", kerr)
			}
			queueColor.Printf("round %d: queue ready, got %q\n", round, string(msg))
		}
		if results[1].Value != 0 {
			ch.Clear(demoChannelBit)
			chanColor.Printf("round %d: channel bits %#x\n", round, results[1].Value)
		}
		// 下一轮的期望快照必须在确认本轮之前读取，
		// 否则会和生产者的下一次改写竞争
		prev := snapshot
		k.Lock()
		snapshot = *word
		k.Unlock()

		if results[2].Value != 0 {
			futexColor.Printf("round %d: condition word changed %d -> %d\n", round, prev, snapshot)
		}

		collected <- struct{}{}
	}
	return nil
}
